package model

import (
	"sort"
	"strings"
)

// MessageKey holds the form-level message in a FieldErrors set.
const MessageKey = "message"

// FieldErrors maps a field name to a human-readable message. It is what the
// backend sends for rejected writes and what local validation produces.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if msg, ok := fe[MessageKey]; ok {
		return msg
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for one field, or "".
func (fe FieldErrors) Field(name string) string {
	if fe == nil {
		return ""
	}
	return fe[name]
}
