package operations

import (
	"errors"
	"fmt"
)

// StepError wraps the failure of one Step. The cause keeps its type, so
// apperrors.IsType still sees through it.
type StepError struct {
	Step  string
	Cause error
}

// Error implements the error interface
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	return e.Cause
}

// skipError signals that a Step chose not to run
type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return "skipped: " + e.reason
}

// Skip returns an error that makes the pipeline mark the Step skipped.
func Skip(reason string) error {
	return &skipError{reason: reason}
}

// IsSkip reports whether err was built with Skip and returns the reason.
func IsSkip(err error) (string, bool) {
	var se *skipError
	if errors.As(err, &se) {
		return se.reason, true
	}
	return "", false
}
