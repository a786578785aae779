package workflows

// defaultTemplates restituisce i template di workflow predefiniti
func defaultTemplates() []Template {
	return []Template{
		{
			ID:                "strategic-planning",
			Name:              "Strategic Planning Session",
			Description:       "Comprehensive strategic planning with multiple perspectives",
			Category:          "business",
			EstimatedTime:     "15-30 minutes",
			RecommendedAgents: []string{"claude", "gpt", "mistral"},
			Tasks: []Task{
				{
					Step:           1,
					Title:          "Objective Definition",
					Description:    "Define clear goals and success metrics",
					PromptTemplate: "Help me define clear, measurable objectives for: {user_input}. Focus on specific goals and success metrics.",
					Agents:         []string{"claude", "gpt"},
				},
				{
					Step:           2,
					Title:          "Current State Analysis",
					Description:    "Current state assessment and gap identification",
					PromptTemplate: "Analyze the current state of: {user_input}. Identify key gaps and challenges that need to be addressed.",
					Agents:         []string{"gpt", "mistral"},
				},
				{
					Step:           3,
					Title:          "Strategy Development",
					Description:    "Develop actionable implementation roadmap",
					PromptTemplate: "Based on the objectives and current state analysis, create a detailed strategic roadmap for: {user_input}.",
					Agents:         []string{"claude", "mistral"},
				},
				{
					Step:           4,
					Title:          "Resource Planning",
					Description:    "Identify required assets and constraints",
					PromptTemplate: "Identify the resources, budget, timeline, and potential constraints for implementing: {user_input}.",
					Agents:         []string{"gpt", "claude"},
				},
			},
			Status:      "active",
			UsageCount:  47,
			SuccessRate: 94.2,
		},
		{
			ID:                "orchestration-framework",
			Name:              "5-Model Orchestration Framework",
			Description:       "Advanced multi-model coordination system",
			Category:          "ai-coordination",
			EstimatedTime:     "20-45 minutes",
			RecommendedAgents: []string{"claude", "gpt", "llama", "mistral", "gemini"},
			Tasks: []Task{
				{
					Step:           1,
					Title:          "Model Selection",
					Description:    "Choose optimal AI combination for task",
					PromptTemplate: "Analyze this task and recommend the best AI model combination: {user_input}",
					Agents:         []string{"claude"},
				},
				{
					Step:           2,
					Title:          "Role Assignment",
					Description:    "Assign specific cognitive archetypes",
					PromptTemplate: "Assign specific roles and cognitive approaches for each AI model to tackle: {user_input}",
					Agents:         []string{"gpt", "claude"},
				},
				{
					Step:           3,
					Title:          "Collaborative Processing",
					Description:    "Enable cross-model dialogue and synthesis",
					PromptTemplate: "Work together to solve: {user_input}. Each model should contribute their unique perspective.",
					Agents:         []string{"claude", "gpt", "llama", "mistral", "gemini"},
				},
				{
					Step:           4,
					Title:          "Quality Evaluation",
					Description:    "Assess multi-model output quality",
					PromptTemplate: "Evaluate and synthesize the multi-model responses for: {user_input}. Provide a final recommendation.",
					Agents:         []string{"claude", "gpt"},
				},
			},
			Status:      "active",
			UsageCount:  23,
			SuccessRate: 97.8,
		},
		{
			ID:                "multi-agent-debate",
			Name:              "Multi-Agent Debate",
			Description:       "Structured debate with multiple AI perspectives",
			Category:          "analysis",
			EstimatedTime:     "10-25 minutes",
			RecommendedAgents: []string{"claude", "gpt", "llama"},
			Tasks: []Task{
				{
					Step:           1,
					Title:          "Position Setting",
					Description:    "Each agent takes a different stance",
					PromptTemplate: "Take a specific position on: {user_input}. Argue for your assigned perspective.",
					Agents:         []string{"claude", "gpt", "llama"},
				},
				{
					Step:           2,
					Title:          "Evidence Gathering",
					Description:    "Present supporting arguments",
					PromptTemplate: "Provide evidence and reasoning to support your position on: {user_input}",
					Agents:         []string{"claude", "gpt", "llama"},
				},
				{
					Step:           3,
					Title:          "Counter-Arguments",
					Description:    "Challenge opposing viewpoints",
					PromptTemplate: "Challenge the opposing arguments about: {user_input}. Point out weaknesses and provide rebuttals.",
					Agents:         []string{"claude", "gpt", "llama"},
				},
				{
					Step:           4,
					Title:          "Synthesis",
					Description:    "Find common ground and optimal solution",
					PromptTemplate: "Synthesize the debate on: {user_input}. Find common ground and propose the best solution.",
					Agents:         []string{"claude"},
				},
			},
			Status:      "active",
			UsageCount:  31,
			SuccessRate: 91.5,
		},
	}
}
