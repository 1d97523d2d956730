package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/wagebud/wagebud/internal/profile"
)

// Result is the validated output of one extraction call. It lives for a
// single turn; only the merged profile survives across turns.
type Result struct {
	Profile       profile.Profile
	MissingFields []string
	NextQuestion  string
}

// ParseFailure is returned when no usable JSON object can be recovered from
// the model's output. It carries the raw text for diagnostics and must be
// surfaced as a distinct outcome, never swallowed.
type ParseFailure struct {
	Raw string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("no valid extraction JSON in model output (%d bytes)", len(e.Raw))
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// LocateJSON finds the most plausible JSON object in text: the first fenced
// code block containing an object if any, otherwise the largest balanced
// {...} span. Returns false when no object-looking span exists.
func LocateJSON(text string) (string, bool) {
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if strings.HasPrefix(inner, "{") {
			return inner, true
		}
	}

	best := ""
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if span, ok := balancedSpan(text[i:]); ok && len(span) > len(best) {
			best = span
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// balancedSpan returns the prefix of s spanning one balanced {...} object,
// skipping braces inside string literals.
func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// candidate mirrors the raw shape the model is asked for. Unknown extra keys
// are tolerated and ignored.
type candidate struct {
	Age             any      `json:"age"`
	YearsExperience any      `json:"years_experience"`
	Education       any      `json:"education"`
	Gender          any      `json:"gender"`
	Country         any      `json:"country"`
	Industry        any      `json:"industry"`
	MissingFields   []string `json:"missingFields"`
	NextQuestion    any      `json:"nextQuestion"`
}

// Validate parses raw model output into a Result. It tolerates code fences,
// surrounding prose, and mildly malformed JSON (repaired before the strict
// parse). Any unrecoverable input yields a *ParseFailure, never a panic or an
// escaping decode error.
func Validate(raw string) (*Result, error) {
	span, ok := LocateJSON(raw)
	if !ok {
		return nil, &ParseFailure{Raw: raw}
	}

	var c candidate
	if err := json.Unmarshal([]byte(span), &c); err != nil {
		fixed, repairErr := jsonrepair.JSONRepair(span)
		if repairErr != nil {
			return nil, &ParseFailure{Raw: raw}
		}
		if err := json.Unmarshal([]byte(fixed), &c); err != nil {
			return nil, &ParseFailure{Raw: raw}
		}
	}

	res := &Result{
		Profile: profile.Profile{
			Age:             coerceString(c.Age),
			YearsExperience: coerceString(c.YearsExperience),
			Education:       coerceString(c.Education),
			Gender:          coerceString(c.Gender),
			Country:         coerceString(c.Country),
			Industry:        coerceString(c.Industry),
		},
		MissingFields: c.MissingFields,
	}
	if res.MissingFields == nil {
		res.MissingFields = []string{}
	}
	if q := coerceString(c.NextQuestion); q != nil {
		res.NextQuestion = *q
	}
	return res, nil
}

// coerceString turns a decoded JSON value into a usable string field value.
// Strings pass through (empty/whitespace counts as unknown), numbers are
// formatted, everything else is unknown.
func coerceString(v any) *string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "unknown") {
			return nil
		}
		return &s
	case float64:
		s := strings.TrimSuffix(fmt.Sprintf("%v", t), ".0")
		return &s
	default:
		return nil
	}
}
