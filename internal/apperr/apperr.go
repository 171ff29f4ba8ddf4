// Package apperr classifies failures so the HTTP boundary can map them to a
// stable status code and error code without inspecting message text.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindUpstream
)

// Status returns the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New returns a sentinel error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap returns a copy of sentinel carrying cause
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

// Upstream marks a failure in an external collaborator (storage, push, OAuth)
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: "UPSTREAM_UNAVAILABLE", Message: message, Err: cause}
}

// As extracts the classified error from err, if any
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
