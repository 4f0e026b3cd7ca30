package oracle

import (
	"encoding/json"
	"strings"

	"retail-insights/internal/domain"
)

// ExtractJSON pulls the first JSON object out of a model response. Models
// often wrap JSON in prose or markdown fences, so it takes the span from
// the first '{' to the last '}' and decodes that. All failures are
// ParseErrors; callers recover by falling back to a default plan.
func ExtractJSON(text string) (any, error) {
	if text == "" {
		return nil, domain.ErrParse("empty model response")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, domain.ErrParse("no JSON found in model output")
	}
	var v any
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, domain.ErrParse("invalid JSON in model output: %v", err)
	}
	return v, nil
}
