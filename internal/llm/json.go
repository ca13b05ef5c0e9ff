package llm

import "regexp"

// fencedJSON matches a ```json ... ``` (or bare ``` ... ```) code block —
// Gemini routinely wraps JSON responses this way despite being asked for
// raw JSON. Grounded on llm_company_analysis.py's
// re.search(r'```json\s*(.*?)\s*```', ...) with a fall-through to the
// raw response when no fence is present.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON returns the JSON payload from a model response, preferring
// a fenced code block and falling back to the raw text.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
