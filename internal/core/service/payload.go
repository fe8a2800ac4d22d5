package service

import "fmt"

// stringField reads a decoded JSON value as a string. Absent and null
// values read as "".
func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// optionalString returns nil when the key is absent or empty.
func optionalString(payload map[string]any, key string) *string {
	s := stringField(payload, key)
	if s == "" {
		return nil
	}
	return &s
}
