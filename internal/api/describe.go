package api

import (
	"context"
	"errors"
)

// Describe turns any failure into one line for display: field messages for
// validation and backend rejections, a fixed text otherwise.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if fe := FieldErrorsOf(err); fe != nil {
		return fe.Error()
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Error()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer."
	case errors.Is(err, ErrTransport):
		return "Could not reach the server."
	}
	return "An unexpected error occurred."
}
