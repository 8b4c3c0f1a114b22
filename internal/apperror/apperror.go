// Package apperror defines the application error taxonomy and its mapping to
// HTTP statuses. Handlers return these; the HTTP error handler renders them.
package apperror

import (
	"fmt"
	"net/http"
)

type ErrorType int

const (
	UnknownError ErrorType = iota
	InvalidInputError
	MissingTokenError
	InvalidTokenError
	UnauthenticatedError
	InvalidCredentialsError
	NotFoundError
	ConflictError
	StoreError
)

type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error type to its HTTP status. Invalid input is 411 by
// contract, odd as it reads.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case InvalidInputError:
		return http.StatusLengthRequired
	case MissingTokenError:
		return http.StatusUnauthorized
	case InvalidTokenError, UnauthenticatedError, InvalidCredentialsError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code is the stable machine-readable code exposed next to the message.
func (e *AppError) Code() string {
	switch e.Type {
	case InvalidInputError:
		return "invalid_input"
	case MissingTokenError:
		return "missing_token"
	case InvalidTokenError:
		return "invalid_token"
	case UnauthenticatedError:
		return "unauthenticated"
	case InvalidCredentialsError:
		return "invalid_credentials"
	case NotFoundError:
		return "not_found"
	case ConflictError:
		return "conflict"
	case StoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Message: e.Message, Code: e.Code()}
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewInvalidInput(message string, err error) *AppError {
	return New(InvalidInputError, message, err)
}

func NewMissingToken(message string) *AppError {
	return New(MissingTokenError, message, nil)
}

func NewInvalidToken(message string, err error) *AppError {
	return New(InvalidTokenError, message, err)
}

func NewUnauthenticated(message string) *AppError {
	return New(UnauthenticatedError, message, nil)
}

func NewInvalidCredentials(message string) *AppError {
	return New(InvalidCredentialsError, message, nil)
}

func NewNotFound(message string) *AppError {
	return New(NotFoundError, message, nil)
}

func NewConflict(message string) *AppError {
	return New(ConflictError, message, nil)
}

func NewStoreError(message string, err error) *AppError {
	return New(StoreError, message, err)
}
