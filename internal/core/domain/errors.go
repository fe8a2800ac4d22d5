package domain

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Kind classifies a failure. The set is closed; each kind has exactly one
// HTTP status.
type Kind string

const (
	KindValidation     Kind = "ValidationError"
	KindAuthentication Kind = "AuthenticationError"
	KindAuthorization  Kind = "AuthorizationError"
	KindNotFound       Kind = "ResourceNotFoundError"
	KindConflict       Kind = "ConflictError"
	KindDatabase       Kind = "DatabaseError"
)

var kindStatus = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindDatabase:       http.StatusInternalServerError,
}

// Status returns the HTTP status bound to the kind.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Storage signals returned by repositories. Services never hand these to the
// transport layer directly; WithStorage reclassifies them.
var (
	ErrNotFound           = errors.New("record not found")
	ErrUniqueViolation    = errors.New("unique constraint violated")
	ErrReferenceViolation = errors.New("referenced record does not exist")
)

// Error is the single taxonomy error type. Build it through the New*
// constructors so the status can never disagree with the kind.
type Error struct {
	kind    Kind
	message string
	fields  map[string]string
	cause   error
	stack   []uintptr
}

func newError(kind Kind, message string, fields map[string]string, cause error) *Error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return &Error{kind: kind, message: message, fields: fields, cause: cause, stack: pcs[:n]}
}

// NewValidationError reports one or more field violations.
func NewValidationError(message string, fields map[string]string) *Error {
	return newError(KindValidation, message, fields, nil)
}

func NewAuthenticationError(message string) *Error {
	return newError(KindAuthentication, message, nil, nil)
}

// NewTokenError is an AuthenticationError that keeps the underlying token
// failure for server-side logs.
func NewTokenError(message string, cause error) *Error {
	return newError(KindAuthentication, message, nil, cause)
}

func NewAuthorizationError(message string) *Error {
	return newError(KindAuthorization, message, nil, nil)
}

func NewNotFoundError(message string) *Error {
	return newError(KindNotFound, message, nil, nil)
}

func NewConflictError(message string) *Error {
	return newError(KindConflict, message, nil, nil)
}

// NewDatabaseError wraps an unclassified storage failure.
func NewDatabaseError(message string, cause error) *Error {
	return newError(KindDatabase, message, nil, cause)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// Code is the kind name exposed to clients.
func (e *Error) Code() string { return string(e.kind) }

func (e *Error) StatusCode() int { return e.kind.Status() }

func (e *Error) Message() string { return e.message }

// Fields returns the per-field violations; nil for every kind except
// ValidationError.
func (e *Error) Fields() map[string]string {
	if e.kind != KindValidation || len(e.fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

func (e *Error) Cause() error { return e.cause }

// Stack renders the call stack captured at construction.
func (e *Error) Stack() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if len(e.stack) == 0 {
		return b.String()
	}
	frames := runtime.CallersFrames(e.stack)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "\n    at %s (%s:%d)", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// AsError extracts a taxonomy error from err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err carries a taxonomy error of the given kind.
func IsKind(err error, kind Kind) bool {
	de, ok := AsError(err)
	return ok && de.kind == kind
}
