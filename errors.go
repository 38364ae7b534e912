package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Error is the structured error returned by the security layer and the
// services built on top of it. Category groups errors by how the HTTP
// boundary treats them, Code carries the HTTP status and TextCode one of the
// ErrorCode values below.
type Error = goerrors.Error

// ErrorCode is the stable, client facing text code carried by every Error.
type ErrorCode = string

const (
	CodeEntityNotFound          ErrorCode = "ENTITY_NOT_FOUND"
	CodePropertyNotFound        ErrorCode = "PROPERTY_NOT_FOUND"
	CodeServerError             ErrorCode = "SERVER_ERROR"
	CodeValidationError         ErrorCode = "VALIDATION_ERROR"
	CodeAuthenticationDenied    ErrorCode = "AUTHENTICATION_DENIED"
	CodeAccessForbidden         ErrorCode = "ACCESS_FORBIDDEN"
	CodeMalformedHeader         ErrorCode = "MALFORMED_HEADER"
	CodeInvalidToken            ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired            ErrorCode = "TOKEN_EXPIRED"
	CodeUnprocessableEntity     ErrorCode = "UNPROCESSABLE_ENTITY"
	CodeEmailVerificationFailed ErrorCode = "EMAIL_VERIFICATION_FAILED"
	CodeUserNotEnable           ErrorCode = "USER_NOT_ENABLE"
	CodeCodeVerificationFailed  ErrorCode = "CODE_VERIFICATION_FAILED"
	CodeUserDuplication         ErrorCode = "USER_DUPLICATION"
)

var errorCodes = []ErrorCode{
	CodeEntityNotFound,
	CodePropertyNotFound,
	CodeServerError,
	CodeValidationError,
	CodeAuthenticationDenied,
	CodeAccessForbidden,
	CodeMalformedHeader,
	CodeInvalidToken,
	CodeTokenExpired,
	CodeUnprocessableEntity,
	CodeEmailVerificationFailed,
	CodeUserNotEnable,
	CodeCodeVerificationFailed,
	CodeUserDuplication,
}

// ErrorCodes returns every code this package can emit.
func ErrorCodes() []ErrorCode {
	out := make([]ErrorCode, len(errorCodes))
	copy(out, errorCodes)
	return out
}

// categoryUnprocessable marks requests that are well formed but refused by a
// business rule (422).
const categoryUnprocessable = goerrors.CategoryOperation

// FieldError describes a single rejected input field as rendered to clients.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
}

// ErrMalformedClaims is wrapped by every claims decoding failure.
var ErrMalformedClaims = errors.New("malformed claims")

func newError(message string, category goerrors.Category, status int, code ErrorCode) *Error {
	return goerrors.New(message, category).
		WithCode(status).
		WithTextCode(code)
}

func wrapError(cause error, message string, category goerrors.Category, status int, code ErrorCode) *Error {
	if cause == nil {
		return newError(message, category, status, code)
	}
	err := goerrors.Wrap(cause, category, message).
		WithCode(status).
		WithTextCode(code)
	err.Category = category
	return err
}

// MalformedHeaderError reports an Authorization header that is present but
// does not follow the Bearer scheme.
func MalformedHeaderError(header string) *Error {
	return newError(fmt.Sprintf("The token is incorrect : %s", header),
		goerrors.CategoryBadInput, http.StatusBadRequest, CodeMalformedHeader)
}

// InvalidTokenError wraps a signature, structure or claims failure.
func InvalidTokenError(cause error) *Error {
	return wrapError(cause, "invalid token", goerrors.CategoryAuth, http.StatusUnauthorized, CodeInvalidToken)
}

// TokenExpiredError is an InvalidTokenError flavour for expired tokens.
func TokenExpiredError(cause error) *Error {
	return wrapError(cause, "token is expired", goerrors.CategoryAuth, http.StatusUnauthorized, CodeTokenExpired)
}

// AccessDeniedError is returned when credentials do not check out (401).
func AccessDeniedError(code ErrorCode, message string) *Error {
	return newError(message, goerrors.CategoryAuth, http.StatusUnauthorized, code)
}

// ForbiddenError is returned when an authenticated principal fails a scope (403).
func ForbiddenError(message string) *Error {
	return newError(message, goerrors.CategoryAuthz, http.StatusForbidden, CodeAccessForbidden)
}

func EntityNotFoundError(code ErrorCode, message string) *Error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, code)
}

func PropertyNotFoundError(code ErrorCode, message string) *Error {
	return newError(message, goerrors.CategoryNotFound, http.StatusNotFound, code)
}

func UnprocessableEntityError(code ErrorCode, message string) *Error {
	return newError(message, categoryUnprocessable, http.StatusUnprocessableEntity, code)
}

// ValidationError carries field level failures (400).
func ValidationError(message string, fields ...FieldError) *Error {
	err := newError(message, goerrors.CategoryValidation, http.StatusBadRequest, CodeValidationError)
	for _, f := range fields {
		err.ValidationErrors = append(err.ValidationErrors, goerrors.FieldError{
			Field:   f.Field,
			Message: f.Message,
			Value:   f.RejectedValue,
		})
	}
	return err
}

const internalMessage = "An unexpected server error occurred"

// InternalError hides the cause from clients while keeping it for logs.
func InternalError(cause error) *Error {
	return wrapError(cause, internalMessage,
		goerrors.CategoryInternal, http.StatusInternalServerError, CodeServerError)
}

// AsError extracts an *Error from err, falling back to an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var richErr *Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return InternalError(err)
}

func asRich(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var richErr *Error
	if !goerrors.As(err, &richErr) {
		return nil, false
	}
	return richErr, true
}

func hasTextCode(err error, codes ...ErrorCode) bool {
	richErr, ok := asRich(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if richErr.TextCode == code {
			return true
		}
	}
	return false
}

func hasCategory(err error, category goerrors.Category) bool {
	richErr, ok := asRich(err)
	return ok && richErr.Category == category
}

// IsInvalidTokenError reports bad, malformed or expired tokens.
func IsInvalidTokenError(err error) bool {
	return hasTextCode(err, CodeInvalidToken, CodeTokenExpired)
}

// IsTokenExpiredError reports expired tokens.
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, CodeTokenExpired)
}

// IsMalformedHeaderError reports Authorization headers outside the Bearer scheme.
func IsMalformedHeaderError(err error) bool {
	return hasTextCode(err, CodeMalformedHeader)
}

// IsAccessDeniedError reports rejected credentials other than token failures.
func IsAccessDeniedError(err error) bool {
	return hasCategory(err, goerrors.CategoryAuth) && !IsInvalidTokenError(err)
}

func IsForbiddenError(err error) bool {
	return hasCategory(err, goerrors.CategoryAuthz)
}

// IsNotFoundError reports missing entities and properties.
func IsNotFoundError(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}

func IsValidationError(err error) bool {
	return hasCategory(err, goerrors.CategoryValidation)
}

func IsUnprocessableEntityError(err error) bool {
	return hasCategory(err, categoryUnprocessable)
}

// StatusOf returns the HTTP status carried by err, 500 when it has none.
func StatusOf(err error) int {
	richErr, ok := asRich(err)
	if !ok || richErr.Code == 0 {
		return http.StatusInternalServerError
	}
	return richErr.Code
}

// ErrorDetails is the payload rendered for every failure at the HTTP boundary.
type ErrorDetails struct {
	Timestamp   time.Time    `json:"timestamp"`
	Message     string       `json:"message"`
	Path        string       `json:"path"`
	Label       string       `json:"label"`
	HTTPCode    int          `json:"httpCode"`
	Code        ErrorCode    `json:"code"`
	FieldErrors []FieldError `json:"fieldErrors"`
}

// NewErrorDetails builds the payload for err. Internal causes never leak: only
// the public message of the structured error is used.
func NewErrorDetails(err error, path string, now time.Time) ErrorDetails {
	richErr := AsError(err)
	if richErr == nil {
		richErr = InternalError(nil)
	}

	fields := make([]FieldError, 0, len(richErr.ValidationErrors))
	for _, f := range richErr.ValidationErrors {
		fields = append(fields, FieldError{Field: f.Field, Message: f.Message, RejectedValue: f.Value})
	}

	code := richErr.TextCode
	if code == "" {
		code = CodeServerError
	}

	status := StatusOf(richErr)
	message := richErr.Message
	if status >= http.StatusInternalServerError {
		message = internalMessage
	}

	return ErrorDetails{
		Timestamp:   now.UTC(),
		Message:     message,
		Path:        path,
		Label:       StatusLabel(status),
		HTTPCode:    status,
		Code:        code,
		FieldErrors: fields,
	}
}

// StatusLabel is the upper snake case name of an HTTP status, e.g. NOT_FOUND.
func StatusLabel(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
