package credential

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes credential failures.
type ErrorCode string

const (
	// ErrCodeMissingPath indicates no credential path was configured.
	ErrCodeMissingPath ErrorCode = "MISSING_PATH"

	// ErrCodeUnreadable indicates the credential file could not be read.
	ErrCodeUnreadable ErrorCode = "UNREADABLE"

	// ErrCodeMalformed indicates the file could not be decoded with the
	// given secret, or its key does not match its certificate.
	ErrCodeMalformed ErrorCode = "MALFORMED"

	// ErrCodeExpired indicates the certificate's NotAfter has passed.
	ErrCodeExpired ErrorCode = "EXPIRED"

	// ErrCodeNotYetValid indicates the certificate's NotBefore is in the future.
	ErrCodeNotYetValid ErrorCode = "NOT_YET_VALID"
)

// Error is a fatal credential failure. Credential errors are configuration
// errors and are never retried.
type Error struct {
	Code    ErrorCode
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCredentialError returns true if err is (or wraps) a credential *Error.
func IsCredentialError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// CodeOf returns the ErrorCode of err, or "" if err is not a credential error.
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
