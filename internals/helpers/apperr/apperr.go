// file: internals/helpers/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

/* =======================================================
   KIND
======================================================= */

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindNotConfigured Kind = "not_configured"
	KindDuplicate     Kind = "duplicate"
	KindConflict      Kind = "conflict"
	KindForbidden     Kind = "forbidden"
	KindStorage       Kind = "storage"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrNotConfigured = &Error{Kind: KindNotConfigured}
	ErrDuplicate     = &Error{Kind: KindDuplicate}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrStorage       = &Error{Kind: KindStorage}
)

/* =======================================================
   ERROR
======================================================= */

// Error is the single error type crossing service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string // field -> reason (validation only)
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Fields[k])
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

/* =======================================================
   CONSTRUCTORS
======================================================= */

func Validation(msg string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: msg, Fields: fields}
}

func Field(field, reason string) error {
	return Validation("validation failed", map[string]string{field: reason})
}

func InvalidAmount(amount fmt.Stringer) error {
	return &Error{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
		Fields:  map[string]string{"amount": amount.String()},
	}
}

func NotFound(what, id string) error {
	return &Error{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(strings.ReplaceAll(what, " ", "_")) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s %q not found", what, id),
	}
}

func NotConfigured(format string, args ...any) error {
	return &Error{Kind: KindNotConfigured, Code: "FEE_NOT_CONFIGURED", Message: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...any) error {
	return &Error{Kind: KindDuplicate, Code: "DUPLICATE", Message: fmt.Sprintf(format, args...)}
}

func Conflict(err error) error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: "concurrent update, please retry", Err: err}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

// Storage wraps a collaborator failure. Already classified errors pass through untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "STORAGE_ERROR", Message: op, Err: err}
}

/* =======================================================
   HELPERS
======================================================= */

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
