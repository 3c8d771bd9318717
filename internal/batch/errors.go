package batch

import (
	"errors"
	"fmt"
)

// ItemErrorCode identifies the pipeline stage a key failed in.
type ItemErrorCode string

const (
	// ErrCodeDecodeFailed indicates the key could not be decoded or verified.
	ErrCodeDecodeFailed ItemErrorCode = "DECODE_FAILED"

	// ErrCodeSynthesisFailed indicates the document could not be rendered.
	ErrCodeSynthesisFailed ItemErrorCode = "SYNTHESIS_FAILED"

	// ErrCodePersistFailed indicates the sink rejected the document.
	ErrCodePersistFailed ItemErrorCode = "PERSIST_FAILED"

	// ErrCodePanic indicates a stage panicked; the panic was contained.
	ErrCodePanic ItemErrorCode = "PANIC"

	// ErrCodeCanceled indicates the run was cancelled before the key started.
	ErrCodeCanceled ItemErrorCode = "CANCELED"
)

// ItemError is a per-key failure. It never aborts the run.
type ItemError struct {
	Code ItemErrorCode
	Key  string
	Err  error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v (key=%s)", e.Code, e.Err, e.Key)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// CodeOf returns the ItemErrorCode of err, or "" if err is not an *ItemError.
func CodeOf(err error) ItemErrorCode {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// ErrAlreadyRun is returned when Run is called on a Processor that has
// left the NotStarted state.
var ErrAlreadyRun = errors.New("processor has already run")

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
