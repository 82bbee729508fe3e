package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "ALREADY_EXISTS"
	case KindRateLimited:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus is the single place a kind is turned into a status code.
// Conflicts are reported as 400, matching the public contract for duplicate emails.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type APIError struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *APIError) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

func New(kind Kind, message string, details string) *APIError {
	return &APIError{Kind: kind, Code: kind.String(), Message: message, Details: details}
}

// Wrap attaches a kind and a client-facing message to cause.
func Wrap(kind Kind, cause error, message string) *APIError {
	return &APIError{Kind: kind, Code: kind.String(), Message: message, Err: cause}
}

func Validation(message string, details string) *APIError {
	return New(KindValidation, message, details)
}

func Unauthorized(message string) *APIError {
	return New(KindUnauthorized, message, "")
}

func Forbidden(message string) *APIError {
	return New(KindForbidden, message, "")
}

func NotFound(message string, details string) *APIError {
	return New(KindNotFound, message, details)
}

func Conflict(message string, details string) *APIError {
	return New(KindConflict, message, details)
}

// KindOf reports the kind of the first *APIError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
