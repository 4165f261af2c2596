package internal

import (
	"errors"
	"fmt"
)

// ErrorType classifies link-scoped pipeline failures.
type ErrorType int

const (
	ErrResolveTransport ErrorType = iota
	ErrResolveBackend
	ErrTooLarge
	ErrDuplicate
	ErrDownload
	ErrUpload
	ErrRecord
	ErrNoLinks
	ErrUnknownBackend
	ErrSettings
)

// String returns the string representation of ErrorType.
func (et ErrorType) String() string {
	switch et {
	case ErrResolveTransport:
		return "ResolveTransport"
	case ErrResolveBackend:
		return "ResolveBackend"
	case ErrTooLarge:
		return "TooLarge"
	case ErrDuplicate:
		return "Duplicate"
	case ErrDownload:
		return "Download"
	case ErrUpload:
		return "Upload"
	case ErrRecord:
		return "Record"
	case ErrNoLinks:
		return "NoLinks"
	case ErrUnknownBackend:
		return "UnknownBackend"
	case ErrSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// ErrDuplicateKey is returned by Catalog.Insert when the uniqueness
// constraint on the file name rejects the record.
var ErrDuplicateKey = errors.New("duplicate key")

// RelayError is a typed, link-scoped pipeline error. Message is short and
// suitable for direct display to the submitting user.
type RelayError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Type.String()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *RelayError) Unwrap() error {
	return e.Cause
}

// NewRelayError creates a RelayError of the given type.
func NewRelayError(t ErrorType, message string) *RelayError {
	return &RelayError{Type: t, Message: message}
}

// WrapRelayError creates a RelayError that preserves the underlying cause.
func WrapRelayError(t ErrorType, message string, cause error) *RelayError {
	return &RelayError{Type: t, Message: message, Cause: cause}
}

// AsRelayError extracts a RelayError from err, converting unknown errors
// into the fallback type so every failure carries a displayable reason.
func AsRelayError(err error, fallback ErrorType) *RelayError {
	var re *RelayError
	if errors.As(err, &re) {
		return re
	}
	return WrapRelayError(fallback, err.Error(), err)
}

// IsType reports whether err is a RelayError of the given type.
func IsType(err error, t ErrorType) bool {
	var re *RelayError
	return errors.As(err, &re) && re.Type == t
}
