package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
)

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// runSteps executes steps one after the other. The context is checked after every successful
// step: once it is done the remaining steps are skipped and the pipeline is Cancelled. A step
// failing with the context error is Cancelled as well. Any other step failure leaves the
// pipeline in Error, whatever the state of the context.
func (p *Pipeline) runSteps(ctx context.Context, run *model.RunInfo, steps []Step) error {
	p.mu.Lock()
	p.stepCount = len(steps)
	p.mu.Unlock()

	for i, step := range steps {
		idx := i + 1
		info := run.Steps[i]

		p.mu.Lock()
		p.currentIdx = idx
		p.currentStep = step
		p.mu.Unlock()

		logger := p.Logger(ctx).With(logkeys.StepName, step.Name(), logkeys.StepIndex, idx, logkeys.StepCount, len(steps))
		logger.Info(logkeys.Message, "executing step")
		p.hook(ctx, "prepare step", func(opt model.PipelineOption) error {
			return opt.BeforeStep(run, info)
		})

		start := time.Now()
		err := step.Execute(ctx)
		elapsed := time.Since(start)

		p.hook(ctx, "finish step", func(opt model.PipelineOption) error {
			return opt.AfterStep(run, info, elapsed, err)
		})

		switch {
		case err == nil && ctx.Err() != nil, cancelled(err):
			logger.Info(logkeys.Message, "run cancelled")
			p.setState(Cancelled)
			return nil
		case err != nil:
			logger.Info(logkeys.Message, "step failed", logkeys.Error, err)
			p.setState(Error)
			return &StepError{Step: step.Name(), Index: idx, Err: err}
		}

		logger.Debug(logkeys.Message, "step finished", logkeys.Elapsed, elapsed.String())
	}

	return nil
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
