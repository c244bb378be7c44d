package core

import (
	"errors"
	"fmt"
)

// Handler errors. Every error a handler returns wraps exactly one of these,
// so callers classify failures with errors.Is.
var (
	// ErrUnsupportedFormat means the file's extension is not handled by the
	// handler it was given to.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecode means the input has a recognised type but could not be parsed.
	ErrDecode = errors.New("decode failed")

	// ErrToolUnavailable means a required external program is not installed.
	ErrToolUnavailable = errors.New("required tool not available")

	// ErrToolExecution means an external program ran and failed.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrIO covers filesystem read, write and rename failures.
	ErrIO = errors.New("i/o error")
)

// ToolExecutionError carries the diagnostic output of a failed external
// program. errors.Is(err, ErrToolExecution) holds for it.
type ToolExecutionError struct {
	Tool       string
	Diagnostic string
	Err        error
}

func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

func (e *ToolExecutionError) Is(target error) bool { return target == ErrToolExecution }

// IOError wraps err as an ErrIO for the operation op on path.
func IOError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
