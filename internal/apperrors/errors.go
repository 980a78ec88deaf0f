// Package apperrors defines the error taxonomy shared by the stores, the API
// client and the transports.
package apperrors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeUnknown       = 1000
	CodeNotFound      = 1404
	CodeAPI           = 2000
	CodeChannelClosed = 3001
	CodeSendBuffer    = 3002
)

// AppError is a coded client error.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Predefined errors
var (
	// ErrNotFound means the server has no active game. It is recoverable and
	// never recorded as a store error.
	ErrNotFound       = &AppError{Code: CodeNotFound, Message: "no active game"}
	ErrChannelClosed  = &AppError{Code: CodeChannelClosed, Message: "channel closed"}
	ErrSendBufferFull = &AppError{Code: CodeSendBuffer, Message: "send buffer full"}
)

// APIError is an opaque failure returned by the HTTP collaborator.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err signals the absence of an active game.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Code extracts the AppError code from err, or CodeAPI / CodeUnknown.
func Code(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return CodeAPI
	}
	return CodeUnknown
}
