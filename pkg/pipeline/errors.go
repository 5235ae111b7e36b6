package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidDefinition    = errors.New("invalid pipeline definition")
	ErrNotInitialized       = errors.New("pipeline must be initialized before execution")
	ErrInvalidState         = errors.New("pipeline must be reset before re-execution")
	ErrMissingInput         = errors.New("missing pipeline input")
	ErrUnsupportedOperation = errors.New("pipeline does not support this operation")
	ErrDownloadFailed       = errors.New("unable to download the list of titles")
	ErrStepFailed           = errors.New("pipeline step failed")
)

// MissingInputError names a required input that was not provided before execution.
type MissingInputError struct {
	ID string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input %s was not provided to the pipeline before execution", e.ID)
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// StepError wraps the failure of a step.
type StepError struct {
	Step string
	// Index is 1-based.
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return target == ErrStepFailed
}
