package extract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// NoContentError indica che nessun testo estraibile è stato trovato
// nel body di risposta. Porta con sé il body grezzo per la diagnosi
type NoContentError struct {
	Raw []byte
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("no extractable content in response body: %s", truncate(e.Raw, 200))
}

// fallbackFields campi noti in cui i provider mettono il testo,
// provati in ordine dopo le shape strutturate
var fallbackFields = []string{"output", "completion", "text", "answer", "result"}

// Text estrae il testo della risposta assistant da un body JSON di
// shape arbitraria. I provider upstream non sono contrattualmente
// uniformi, quindi l'estrazione è una catena best-effort: shape
// chat-completions, shape content-generation, campi noti, poi
// scansione euristica. Non deve mai andare in panic su shape ignote
func Text(raw []byte) (string, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", &NoContentError{Raw: raw}
	}

	// 1. choices[0].message.content (famiglia chat-completions)
	if text, ok := chatCompletionsText(body); ok {
		return text, nil
	}

	// 2. candidates[0].content.parts[0].text (famiglia content-generation)
	if text, ok := contentGenerationText(body); ok {
		return text, nil
	}

	// 3. campi noti a livello top
	for _, field := range fallbackFields {
		if text, ok := body[field].(string); ok && text != "" {
			return text, nil
		}
	}

	// 4. primo campo stringa a livello top, qualunque chiave
	if field, text, ok := firstStringField(body); ok {
		log.Warn().
			Str("field", field).
			Msg("Response extractor used top-level fallback field")
		return text, nil
	}

	// 5. primo campo stringa un livello dentro un oggetto annidato
	for _, key := range sortedKeys(body) {
		nested, ok := body[key].(map[string]any)
		if !ok {
			continue
		}
		if field, text, found := firstStringField(nested); found {
			log.Warn().
				Str("parent", key).
				Str("field", field).
				Msg("Response extractor used nested fallback field")
			return text, nil
		}
	}

	return "", &NoContentError{Raw: raw}
}

// chatCompletionsText prova la shape choices[0].message.content
func chatCompletionsText(body map[string]any) (string, bool) {
	choices, ok := body["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := message["content"].(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// contentGenerationText prova la shape candidates[0].content.parts[0].text
func contentGenerationText(body map[string]any) (string, bool) {
	candidates, ok := body["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", false
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := part["text"].(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// firstStringField restituisce il primo valore stringa non vuoto,
// con ordine di chiave deterministico
func firstStringField(obj map[string]any) (field, text string, ok bool) {
	for _, key := range sortedKeys(obj) {
		if s, isString := obj[key].(string); isString && s != "" {
			return key, s, true
		}
	}
	return "", "", false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// TokensUsed estrae il conteggio token dal body quando presente.
// Copre usage.total_tokens (chat-completions) e
// usageMetadata.totalTokenCount (content-generation)
func TokensUsed(raw []byte) int {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0
	}

	if usage, ok := body["usage"].(map[string]any); ok {
		if total, ok := usage["total_tokens"].(float64); ok {
			return int(total)
		}
	}

	if usage, ok := body["usageMetadata"].(map[string]any); ok {
		if total, ok := usage["totalTokenCount"].(float64); ok {
			return int(total)
		}
	}

	return 0
}
