package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/askiada/go-refresher/pkg/discovery"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
)

type fakeStep struct {
	*pipeline.BaseStep
	fn func(ctx context.Context, s *fakeStep) error
}

func (s *fakeStep) Execute(ctx context.Context) error {
	if s.fn == nil {
		s.SetProgress(1)
		return nil
	}

	return s.fn(ctx, s)
}

func newFactory(name string, fn func(ctx context.Context, s *fakeStep) error, inputs ...pipeline.StepInput) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &fakeStep{BaseStep: pipeline.NewBaseStep(p, name, inputs...), fn: fn}
	}
}

func input(id string) pipeline.StepInput {
	return pipeline.StepInput{ID: id, Name: id, Type: pipeline.InputTypeString}
}

// recorder records the names of the steps in execution order.
type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) step(name string, fn func(ctx context.Context, s *fakeStep) error, inputs ...pipeline.StepInput) pipeline.StepFactory {
	return newFactory(name, func(ctx context.Context, s *fakeStep) error {
		r.mu.Lock()
		r.names = append(r.names, name)
		r.mu.Unlock()
		if fn == nil {
			s.SetProgress(1)
			return nil
		}

		return fn(ctx, s)
	}, inputs...)
}

func (r *recorder) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.names...)
}

func newPipeline(t *testing.T, def pipeline.Definition, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	pipe, err := pipeline.New(def, opts...)
	if err != nil {
		t.Fatalf("unable to create pipeline: %v", err)
	}
	pipe.Initialize()

	return pipe
}

type fakeDiscoverer struct {
	resp *discovery.Response
	err  error
}

func (d *fakeDiscoverer) Discover(context.Context, string) (*discovery.Response, error) {
	return d.resp, d.err
}

// hookRecorder is a pipeline option recording every hook call.
type hookRecorder struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (h *hookRecorder) record(call string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
	if call == h.failOn {
		return context.DeadlineExceeded
	}

	return nil
}

func (h *hookRecorder) New() error { return h.record("new") }

func (h *hookRecorder) StartRun(run *model.RunInfo) error {
	return h.record("start " + string(run.Kind))
}

func (h *hookRecorder) BeforeStep(_ *model.RunInfo, step *model.StepInfo) error {
	return h.record("before " + step.Key())
}

func (h *hookRecorder) AfterStep(_ *model.RunInfo, step *model.StepInfo, _ time.Duration, err error) error {
	if err != nil {
		return h.record("failed " + step.Key())
	}

	return h.record("after " + step.Key())
}

func (h *hookRecorder) FinishRun(run *model.RunInfo) error {
	return h.record("finish " + run.State)
}

var _ model.PipelineOption = (*hookRecorder)(nil)
