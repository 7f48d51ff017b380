package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Type carries a
// machine-readable discriminator for clients (e.g. "in_use" on blocked
// deletions).
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Type    string `json:"type,omitempty"`
	Count   int    `json:"count,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Uniqueness conflicts map to 400 to
// stay wire-compatible with the legacy application.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "email atau password salah")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "akun tidak aktif")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "data tidak ditemukan")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "akses ditolak")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "tidak terautentikasi")
	ErrConflict           = New("CONFLICT", http.StatusBadRequest, "data sudah ada")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validasi gagal")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "terjadi kesalahan pada server")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// InUse builds a DependencyError for deletions blocked by referencing rows.
func InUse(message string, count int) *Error {
	return &Error{
		Code:    "DEPENDENCY_ERROR",
		Status:  http.StatusBadRequest,
		Message: message,
		Type:    "in_use",
		Count:   count,
	}
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
