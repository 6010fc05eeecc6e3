package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica un error de API. Cada kind tiene un status HTTP fijo.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Error es el error que devuelven los services.
// Message es seguro para el cliente; Err (si existe) solo va a logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "unauthorized"}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "forbidden"
	}
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	if msg == "" {
		msg = "not found"
	}
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal", Err: err}
}

// KindOf devuelve el kind de err. Cualquier error que no sea *Error es interno.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage es lo único que ve el cliente. Los internos nunca exponen detalle.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal"
	}
	return e.Message
}
