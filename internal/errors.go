package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidKind      ErrorCode = "INVALID_KIND"
	ErrCodeBackendRejected  ErrorCode = "BACKEND_REJECTED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeNotApprover     ErrorCode = "NOT_APPROVER"
	ErrCodeResourceMissing ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAlreadyDecided  ErrorCode = "ALREADY_DECIDED"

	ErrCodeBackendFailure ErrorCode = "BACKEND_FAILURE"
	ErrCodeDecodeFailed   ErrorCode = "DECODE_FAILED"
	ErrCodeSessionLoading ErrorCode = "SESSION_LOADING"
	ErrCodePageNotFound   ErrorCode = "PAGE_NOT_FOUND"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches AppErrors by code so that sentinels survive WithCause copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithCause returns a copy of e wrapping cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewExternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeBackendFailure,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid user name or password", ErrCodeInvalidCredentials)
	ErrNotAuthenticated   = NewUnauthorizedError("Not logged in", ErrCodeNotAuthenticated)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrForbidden      = NewForbiddenError("You do not have permission to perform this action", ErrCodeForbidden)
	ErrNotApprover    = NewForbiddenError("Only approvers can decide on requests", ErrCodeNotApprover)
	ErrNotFound       = NewNotFoundError("Resource not found", ErrCodeResourceMissing)
	ErrAlreadyDecided = NewConflictError("This request has already been decided", ErrCodeAlreadyDecided)
	ErrInvalidRole    = NewValidationError("Unknown role", ErrCodeInvalidRole)
	ErrInvalidStatus  = NewValidationError("Unknown status", ErrCodeInvalidStatus)
	ErrInvalidKind    = NewValidationError("Unknown approval kind, want investment or request", ErrCodeInvalidKind)
	ErrPageNotFound   = NewNotFoundError("Page not found", ErrCodePageNotFound)

	ErrSessionLoading = &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       ErrCodeSessionLoading,
		Message:    "Session is still initializing",
		StatusCode: http.StatusServiceUnavailable,
	}
	ErrRateLimited = &AppError{
		Type:       ErrorTypeUnavailable,
		Code:       ErrCodeRateLimited,
		Message:    "Too many requests",
		StatusCode: http.StatusTooManyRequests,
	}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: backend returned status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Message extracts a human readable message from the body, if the backend sent one.
func (e *APIError) Message() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// IsStatus reports whether err carries a backend response with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}

// DecodeError reports a backend payload that did not match the expected schema.
type DecodeError struct {
	Endpoint string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Classify maps any error surfaced by a user action onto the AppError taxonomy.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &AppError{
			Type:       ErrorTypeExternal,
			Code:       ErrCodeDecodeFailed,
			Message:    "Unexpected response from server",
			StatusCode: http.StatusBadGateway,
			Cause:      err,
		}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			return backendRejected(apiErr)
		case http.StatusUnauthorized:
			return ErrNotAuthenticated.WithCause(err)
		case http.StatusForbidden:
			return ErrForbidden.WithCause(err)
		case http.StatusNotFound:
			return ErrNotFound.WithCause(err)
		}
	}
	return NewExternalError("Request failed", err)
}

// backendRejected surfaces a backend 400 as a validation error so field messages reach the caller.
func backendRejected(apiErr *APIError) *AppError {
	appErr := &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeBackendRejected,
		Message:    apiErr.Message(),
		StatusCode: http.StatusBadRequest,
		Cause:      apiErr,
	}
	if appErr.Message == "" {
		appErr.Message = "Request rejected by server"
	}
	if len(apiErr.Body) > 0 && json.Valid(apiErr.Body) {
		appErr.Details = apiErr.Body
	}
	return appErr
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
