package domain

import (
	"errors"
	"net/http"
)

// Error codes for business logic errors.
const (
	CodeNotFound                 = 1
	CodeValidation               = 2
	CodeInternal                 = 3
	CodeUnauthenticated          = 4
	CodeSessionExpired           = 5
	CodeAuthenticatedOnAuthRoute = 6
	CodeForbidden                = 7
)

// AppError represents a business logic error with a code, message, and optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined errors. Match them with the Is* helpers, which compare codes,
// rather than errors.Is, which compares pointers.
var (
	ErrNotFound                 = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation               = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal                 = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnauthenticated          = &AppError{Code: CodeUnauthenticated, Message: "unauthenticated"}
	ErrSessionExpired           = &AppError{Code: CodeSessionExpired, Message: "session expired"}
	ErrAuthenticatedOnAuthRoute = &AppError{Code: CodeAuthenticatedOnAuthRoute, Message: "already signed in"}
	ErrForbidden                = &AppError{Code: CodeForbidden, Message: "forbidden"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool { return hasCode(err, CodeInternal) }

// IsUnauthenticated reports whether err is or wraps an AppError with CodeUnauthenticated.
func IsUnauthenticated(err error) bool { return hasCode(err, CodeUnauthenticated) }

// IsSessionExpired reports whether err is or wraps an AppError with CodeSessionExpired.
func IsSessionExpired(err error) bool { return hasCode(err, CodeSessionExpired) }

// IsForbidden reports whether err is or wraps an AppError with CodeForbidden.
func IsForbidden(err error) bool { return hasCode(err, CodeForbidden) }

// IsNoSession reports whether err means the request carries no usable
// session, either because none was presented or because it has expired.
func IsNoSession(err error) bool {
	return IsUnauthenticated(err) || IsSessionExpired(err)
}

func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// Non-AppErrors and unknown codes map to 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeValidation:
			return http.StatusBadRequest
		case CodeUnauthenticated, CodeSessionExpired:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeAuthenticatedOnAuthRoute:
			return http.StatusSeeOther
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
