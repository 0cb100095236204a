package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside JSON strings. Models often wrap the object in prose or code fences.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type answer struct {
	Category *string   `json:"category"`
	Summary  *string   `json:"summary"`
	Detail   *string   `json:"detail"`
	Scope    *string   `json:"scope"`
	Tags     *[]string `json:"tags"`
}

func parseAnswer(text string) (*Result, error) {
	obj, ok := extractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrFailed)
	}
	var a answer
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return nil, fmt.Errorf("%w: decode model output: %v", ErrFailed, err)
	}

	switch {
	case a.Category == nil || !models.Category(*a.Category).Valid():
		return nil, fmt.Errorf("%w: invalid category %v", ErrFailed, deref(a.Category))
	case a.Scope == nil || !models.Scope(*a.Scope).Valid():
		return nil, fmt.Errorf("%w: invalid scope %v", ErrFailed, deref(a.Scope))
	case a.Summary == nil || strings.TrimSpace(*a.Summary) == "":
		return nil, fmt.Errorf("%w: empty summary", ErrFailed)
	case a.Detail == nil:
		return nil, fmt.Errorf("%w: missing detail", ErrFailed)
	case a.Tags == nil:
		return nil, fmt.Errorf("%w: missing tags", ErrFailed)
	}

	return &Result{
		Category: models.Category(*a.Category),
		Scope:    models.Scope(*a.Scope),
		Summary:  strings.TrimSpace(*a.Summary),
		Detail:   *a.Detail,
		Tags:     *a.Tags,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return "<missing>"
	}
	return fmt.Sprintf("%q", *s)
}
