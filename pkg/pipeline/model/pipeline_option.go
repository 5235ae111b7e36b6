package model

import "time"

// PipelineOption defines the interface for pipeline options.
// Errors returned by the run hooks are logged by the pipeline and never change the run outcome.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	// StartRun runs once the run is Running, before its first step.
	StartRun(run *RunInfo) error
	// BeforeStep runs before the step is executed.
	BeforeStep(run *RunInfo, step *StepInfo) error
	// AfterStep runs after the step returned. err is the step error, if any.
	AfterStep(run *RunInfo, step *StepInfo, elapsed time.Duration, err error) error
	// FinishRun runs after the run reached a terminal state.
	FinishRun(run *RunInfo) error
}
