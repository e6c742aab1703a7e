package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput         = "API_BAD_INPUT"
	ErrorNotConfigured    = "API_NOT_CONFIGURED"
	ErrorResourceNotFound = "API_RESOURCE_NOT_FOUND"
	ErrorSessionNotFound  = "API_SESSION_NOT_FOUND"
	ErrorUnauthorized     = "API_UNAUTHORIZED"
	ErrorRequestFailed    = "API_REQUEST_FAILED"
	ErrorDecodeFailed     = "API_DECODE_FAILED"
	ErrorCancelled        = "API_CANCELLED"
	ErrorInternal         = "API_INTERNAL"
)

// ErrNotConfigured is returned by every request issued before Configure.
var ErrNotConfigured = errors.New("core: manager is not configured")

// ErrSessionNotFound is returned by session stores when no session is active.
var ErrSessionNotFound = errors.New("core: no active session")

func apiErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrNotConfigured):
		return wrapError(err, goerrors.CategoryOperation, ErrorNotConfigured, "api manager is not configured")
	case errors.Is(err, ErrSessionNotFound):
		return wrapError(err, goerrors.CategoryNotFound, ErrorSessionNotFound, "no active session")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return wrapError(err, goerrors.CategoryOperation, ErrorCancelled, "request cancelled")
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must not"):
		return wrapError(err, goerrors.CategoryBadInput, ErrorBadInput, err.Error())
	case strings.Contains(msg, "decode"), strings.Contains(msg, "unmarshal"):
		return wrapError(err, goerrors.CategoryExternal, ErrorDecodeFailed, err.Error())
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newAPIError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func wrapError(err error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.Wrap(err, category, message).
			WithTextCode(textCode),
	)
}

// LoginFieldCollisionError reports a login parameter that would shadow the
// login field of the encoded body.
func LoginFieldCollisionError(field string) *goerrors.Error {
	return newAPIError("login parameter collides with the login field", goerrors.CategoryBadInput, ErrorBadInput).
		WithMetadata(map[string]any{"field": field})
}

func notConfiguredError(operation string) *goerrors.Error {
	return wrapError(ErrNotConfigured, goerrors.CategoryOperation, ErrorNotConfigured, "api manager is not configured").
		WithMetadata(map[string]any{"operation": operation})
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusFor(err.Category, err.TextCode)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorResourceNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryExternal:
		return ErrorRequestFailed
	default:
		return ErrorInternal
	}
}

func httpStatusFor(category goerrors.Category, textCode string) int {
	switch textCode {
	case ErrorNotConfigured:
		return http.StatusPreconditionFailed
	case ErrorCancelled:
		return http.StatusRequestTimeout
	}
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// IsNotConfigured reports whether err came from a request issued before Configure.
func IsNotConfigured(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == ErrorNotConfigured
}

// TextCode returns the envelope text code carried by err, or "".
func TextCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
