package accesskey

import (
	"errors"
	"fmt"
)

// InvalidKeyErrorCode categorizes decode failures.
type InvalidKeyErrorCode string

const (
	// ErrCodeBadLength indicates the key is not exactly Length characters.
	ErrCodeBadLength InvalidKeyErrorCode = "BAD_LENGTH"

	// ErrCodeBadCharset indicates a field contains characters outside its charset.
	ErrCodeBadCharset InvalidKeyErrorCode = "BAD_CHARSET"

	// ErrCodeBadCheckDigit indicates the embedded check digit does not match.
	ErrCodeBadCheckDigit InvalidKeyErrorCode = "BAD_CHECK_DIGIT"
)

// InvalidKeyError reports why a raw string is not a usable access key.
type InvalidKeyError struct {
	Code InvalidKeyErrorCode

	// Field names the offending field (empty for length errors).
	Field string

	// Raw is the input that failed to decode.
	Raw string

	Message string
}

// Error implements the error interface.
func (e *InvalidKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidKey returns true if err is (or wraps) an *InvalidKeyError.
func IsInvalidKey(err error) bool {
	var ke *InvalidKeyError
	return errors.As(err, &ke)
}

// IsCheckDigitError returns true if err is a check digit mismatch.
func IsCheckDigitError(err error) bool {
	var ke *InvalidKeyError
	if errors.As(err, &ke) {
		return ke.Code == ErrCodeBadCheckDigit
	}
	return false
}
