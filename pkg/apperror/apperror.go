package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies business errors raised by the service layer. Anything that
// is not one of these kinds is an infrastructure failure and must surface as
// a generic server error.
type Kind int

const (
	KindNotFound Kind = iota
	KindAlreadyExists
	KindUnauthorized
)

// Error is a business error carrying enough context for the HTTP boundary to
// build its response without inspecting internals.
type Error struct {
	Kind     Kind
	Resource string
	Field    string
	Detail   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case KindNotFound:
		return e.Resource + " not found."
	case KindAlreadyExists:
		return fmt.Sprintf("%s with this %s already exists.", e.Resource, e.Field)
	case KindUnauthorized:
		return "Could not validate credentials"
	}
	return "unknown error"
}

// StatusCode maps the error kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// NotFound reports that the requested resource does not exist.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource}
}

// AlreadyExists reports a unique-field collision on the given resource.
func AlreadyExists(resource, field string) *Error {
	return &Error{Kind: KindAlreadyExists, Resource: resource, Field: field}
}

// Unauthorized is reserved for credential failures. The user domain does not
// raise it today but the boundary translates it like the others.
func Unauthorized(detail string) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

// As unwraps err into an *Error if it is one.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
