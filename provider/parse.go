package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// An InterpretationError means no usable structure could be recovered from a
// backend reply. It carries a truncated prefix of the offending text and is
// handled exactly like an ExtractionError: the chunk is retried or dropped.
type InterpretationError struct {
	Snippet string
}

func (e *InterpretationError) Error() string {
	return fmt.Sprintf("failed to parse backend response: %s", e.Snippet)
}

const snippetLen = 200

// ParseResponse turns a backend's raw text reply into a PageResult. It
// tolerates markdown code fences and the occasional habit of emitting one
// JSON object per described entity back-to-back instead of nesting them
// inside "data"; that trailing object is recovered, not discarded.
func ParseResponse(raw string) (*PageResult, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if nl := strings.Index(text, "\n"); nl != -1 {
			text = text[nl+1:]
		}
		trimmed := strings.TrimRight(text, " \t\n")
		if strings.HasSuffix(trimmed, "```") {
			text = strings.TrimRight(strings.TrimSuffix(trimmed, "```"), " \t\n")
		}
	}

	// Direct parse first.
	result := &PageResult{}
	if err := json.Unmarshal([]byte(text), result); err == nil {
		return result, nil
	}

	// Parse the first well-formed JSON object, then look at what follows it.
	decoder := json.NewDecoder(strings.NewReader(text))
	first := map[string]interface{}{}
	if err := decoder.Decode(&first); err != nil {
		return nil, &InterpretationError{Snippet: truncate(text, snippetLen)}
	}
	remainder := strings.TrimSpace(text[decoder.InputOffset():])
	if remainder != "" {
		second := map[string]interface{}{}
		if err := json.Unmarshal([]byte(remainder), &second); err == nil {
			if data, ok := first["data"].([]interface{}); ok && len(data) > 0 {
				first["data"] = append(data, second)
			} else {
				first["data"] = []interface{}{second}
			}
		}
	}

	combined, err := json.Marshal(first)
	if err != nil {
		return nil, &InterpretationError{Snippet: truncate(text, snippetLen)}
	}
	result = &PageResult{}
	if err := json.Unmarshal(combined, result); err != nil {
		return nil, &InterpretationError{Snippet: truncate(text, snippetLen)}
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
