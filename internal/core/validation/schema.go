// Package validation checks request payloads against declarative field
// schemas and reports every failing field in a single ValidationError.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// Rule is the set of constraints for one field. Zero values disable a rule.
type Rule struct {
	Required  bool
	Pattern   *regexp.Regexp
	Message   string // reported when Pattern fails
	MinLength int
	MaxLength int
	MaxBytes  int // encoded length, for inputs bounded in bytes
	Enum      []string
	Default   any
}

// Field binds a rule to a payload key.
type Field struct {
	Name string
	Rule Rule
}

// Schema is evaluated in declaration order. It is built once per endpoint
// and must not be mutated afterwards.
type Schema []Field

// Validate runs every field rule against data. Keys missing from the schema
// are ignored. When several rules fail for the same field the message of the
// last failing rule is kept.
func Validate(data map[string]any, schema Schema) error {
	errs := make(map[string]string)

	for _, f := range schema {
		value, present := data[f.Name]
		empty := !present || isEmpty(value)

		if f.Rule.Required && empty {
			errs[f.Name] = fmt.Sprintf("%s is required", f.Name)
			continue
		}
		if empty {
			continue
		}

		r := f.Rule
		if r.Pattern != nil && !r.Pattern.MatchString(asString(value)) {
			if r.Message != "" {
				errs[f.Name] = r.Message
			} else {
				errs[f.Name] = fmt.Sprintf("Invalid %s format", f.Name)
			}
		}

		if n, ok := length(value); ok {
			if r.MinLength > 0 && n < r.MinLength {
				errs[f.Name] = fmt.Sprintf("%s must be at least %d characters", f.Name, r.MinLength)
			}
			if r.MaxLength > 0 && n > r.MaxLength {
				errs[f.Name] = fmt.Sprintf("%s must not exceed %d characters", f.Name, r.MaxLength)
			}
		}

		if s, ok := value.(string); ok && r.MaxBytes > 0 && len(s) > r.MaxBytes {
			errs[f.Name] = fmt.Sprintf("%s must not exceed %d bytes", f.Name, r.MaxBytes)
		}

		if len(r.Enum) > 0 && !contains(r.Enum, value) {
			errs[f.Name] = fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(r.Enum, ", "))
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationError("Validation failed", errs)
	}
	return nil
}

// ApplyDefaults fills schema defaults for fields that are absent or empty.
// data is modified in place.
func ApplyDefaults(data map[string]any, schema Schema) {
	for _, f := range schema {
		if f.Rule.Default == nil {
			continue
		}
		if v, ok := data[f.Name]; !ok || isEmpty(v) {
			data[f.Name] = f.Rule.Default
		}
	}
}

// isEmpty treats the JSON falsy values as absent.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	default:
		return false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// length is defined for strings (in characters) and lists only.
func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []any:
		return len(t), true
	case []string:
		return len(t), true
	default:
		return 0, false
	}
}

func contains(set []string, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
