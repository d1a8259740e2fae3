package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Makepad-fr/skillbox/internal/model"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("transport error")

// StatusError is a non-2xx response. Fields carries the backend's
// field-keyed error body, or a single "message" entry when the body was not
// a JSON object.
type StatusError struct {
	Status int
	Fields model.FieldErrors
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Fields.Error())
}

func (e *StatusError) Unwrap() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields
}

// FieldErrorsOf returns the field messages carried by a local validation
// error or a backend rejection, or nil for any other error.
func FieldErrorsOf(err error) model.FieldErrors {
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

func newStatusError(status int, body []byte) *StatusError {
	return &StatusError{Status: status, Fields: decodeFieldErrors(status, body)}
}

func decodeFieldErrors(status int, body []byte) model.FieldErrors {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		msg := strings.TrimSpace(string(body))
		if msg == "" || strings.HasPrefix(msg, "<") {
			msg = http.StatusText(status)
		}
		return model.FieldErrors{model.MessageKey: msg}
	}
	fe := make(model.FieldErrors, len(raw))
	for k, v := range raw {
		fe[k] = stringify(v)
	}
	// {"error": "..."} is the common single-message shape.
	if msg, ok := fe["error"]; ok && len(fe) == 1 {
		return model.FieldErrors{model.MessageKey: msg}
	}
	return fe
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+stringify(x[k]))
		}
		return strings.Join(parts, "; ")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
