package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/slip-scanner/internal/ledger"
)

// parseResult converts the model's raw text into a Result. Malformed JSON is
// an error (and so retryable); missing or mistyped individual fields are not:
// strings default to empty, amount defaults to 0, and an out-of-set category
// is coerced to the fallback.
func parseResult(raw string, categories []string) (*Result, error) {
	clean := cleanModelJSON(raw)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	res := &Result{
		Payee:    stringField(obj, "payee"),
		Amount:   numberField(obj, "amount"),
		Date:     stringField(obj, "date"),
		Category: stringField(obj, "category"),
	}

	if !containsCategory(categories, res.Category) {
		res.Category = ledger.FallbackCategory
	}
	return res, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Keep only the first '{' through the last '}' when extra text remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func numberField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func containsCategory(categories []string, name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}
