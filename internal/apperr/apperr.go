// Package apperr defines the error kinds the booking core reports to its
// callers. Every error that crosses the service boundary is either an *Error
// or an internal failure that callers render generically.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindReferential    Kind = "referential"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindTransientStore Kind = "transient_store"
)

// Conflict codes.
const (
	CodeDuplicate          = "duplicate"
	CodeInvalidTransition  = "invalid_transition"
	CodePreconditionFailed = "precondition_failed"
	CodeImmutable          = "immutable"
	CodeRoleConflict       = "role_conflict"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Fields maps a payload field to the problem found with it.
	Fields map[string]string
	// Current and Required describe state-machine failures.
	Current  string
	Required string
	// Details carries extra identifiers, e.g. the booking and reviewer of a
	// duplicate review.
	Details map[string]string

	// Anonymous marks an authorization failure for a caller without identity.
	Anonymous bool

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString("/" + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		b.WriteString(" [" + strings.Join(parts, "; ") + "]")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind and code, so sentinel-style checks
// like errors.Is(err, &Error{Kind: KindConflict}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: "forbidden", Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: "unauthenticated", Message: message, Anonymous: true}
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid", Message: "invalid payload", Fields: fields}
}

func Referential(fields map[string]string) *Error {
	return &Error{Kind: KindReferential, Code: "invalid_reference", Message: "referenced object does not exist", Fields: fields}
}

func NotFound(resource string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s %v not found", resource, id),
		Details: map[string]string{"resource": resource, "id": fmt.Sprint(id)},
	}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(current, required, message string) *Error {
	return &Error{
		Kind:     KindConflict,
		Code:     CodeInvalidTransition,
		Message:  message,
		Current:  current,
		Required: required,
	}
}

func Precondition(current, required, message string) *Error {
	return &Error{
		Kind:     KindConflict,
		Code:     CodePreconditionFailed,
		Message:  message,
		Current:  current,
		Required: required,
	}
}

func Transient(err error) *Error {
	return &Error{Kind: KindTransientStore, Code: "store_unavailable", Message: "storage temporarily unavailable", Err: err}
}

// WithDetail returns e with an extra detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// IsValidation reports both plain validation and referential failures.
func IsValidation(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindReferential
}

// Retryable reports whether err may be retried by an idempotent reader.
func Retryable(err error) bool { return IsKind(err, KindTransientStore) }
