package pipeline

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/micromdm/nanolib/log"

	"github.com/askiada/go-refresher/internal/logkeys"
)

// InputType hints the presentation layer at how to collect an input.
type InputType string

const (
	InputTypeString    InputType = "string"
	InputTypeDirectory InputType = "directory"
	InputTypeAddress   InputType = "address"
	InputTypeURL       InputType = "url"
)

// StepInput is a named value a step requires before the pipeline runs.
// Inputs with the same ID declared by different steps are one requirement.
type StepInput struct {
	ID          string
	Name        string
	Placeholder string
	Type        InputType
	// Optional inputs are listed but not enforced before execution.
	Optional bool
}

// Step is one unit of pipeline work.
type Step interface {
	Name() string
	// Inputs returns the inputs this step requires.
	Inputs() []StepInput
	// Progress returns the step-local progress in [0, 1].
	Progress() float64
	// Execute runs the step. It may read and replace the pipeline's run context.
	Execute(ctx context.Context) error
}

// StepFactory builds a step bound to its pipeline.
type StepFactory func(p *Pipeline) Step

// BaseStep implements the bookkeeping shared by steps. Embed it and implement Execute.
type BaseStep struct {
	pipeline *Pipeline
	name     string
	inputs   []StepInput
	progress atomic.Uint64
}

// NewBaseStep creates the base of a step named name requiring inputs.
func NewBaseStep(p *Pipeline, name string, inputs ...StepInput) *BaseStep {
	return &BaseStep{pipeline: p, name: name, inputs: inputs}
}

// Pipeline returns the owning pipeline.
func (s *BaseStep) Pipeline() *Pipeline {
	return s.pipeline
}

func (s *BaseStep) Name() string {
	return s.name
}

func (s *BaseStep) Inputs() []StepInput {
	return append([]StepInput(nil), s.inputs...)
}

func (s *BaseStep) Progress() float64 {
	return math.Float64frombits(s.progress.Load())
}

// SetProgress records the step-local progress, clamped to [0, 1].
func (s *BaseStep) SetProgress(v float64) {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.progress.Store(math.Float64bits(v))
}

// Logger returns the run-scoped logger of the owning pipeline, tagged with the step name.
func (s *BaseStep) Logger(ctx context.Context) log.Logger {
	return s.pipeline.Logger(ctx).With(logkeys.StepName, s.name)
}

// BestEffort runs fn and reports a failure instead of returning it, for work the run can do without.
// Cancellation is still returned.
func (s *BaseStep) BestEffort(ctx context.Context, what string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		s.Logger(ctx).Info(logkeys.Message, "skipping "+what, logkeys.Error, err)
	}

	return nil
}
