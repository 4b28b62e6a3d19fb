package vault

import (
	"encoding/json"
	"strings"
)

// SearchText flattens an arbitrary decrypted value into the lower-cased
// text form that search matches against. Structured values are rendered as
// their JSON serialization, so field names match too.
func SearchText(value interface{}) string {
	if s, ok := value.(string); ok {
		return strings.ToLower(s)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(data))
}

// Relevance counts case-insensitive occurrences of the query within the
// flattened text. Zero means no match.
func Relevance(text, query string) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0
	}
	return strings.Count(text, query)
}
