package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/discovery"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
	"github.com/askiada/go-refresher/pkg/title"
	"github.com/askiada/go-refresher/pkg/workspace"
)

type ctxKey int

const ctxKeyRunID ctxKey = iota

// Pipeline runs the steps of a Definition in order against shared run state.
//
// A Pipeline is driven by one caller: Initialize, Execute, DownloadTitleList and Reset must not
// be called concurrently. Progress, CurrentStepProgress, CurrentStep and State may be polled
// from any goroutine.
type Pipeline struct {
	def        Definition
	logger     log.Logger
	discoverer Discoverer
	workspace  *workspace.Workspace
	opts       []model.PipelineOption

	inputs         map[string]string
	requiredInputs []StepInput
	steps          []Step
	initialized    bool
	run            RunContext

	mu          sync.RWMutex
	state       State
	runID       string
	stepCount   int
	currentIdx  int
	currentStep Step
}

// New creates a pipeline of the kind declared by def.
func New(def Definition, opts ...Option) (*Pipeline, error) {
	err := def.validate()
	if err != nil {
		return nil, err
	}

	pipe := &Pipeline{
		def:    def,
		logger: log.NopLogger,
		inputs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(pipe)
	}
	if pipe.discoverer == nil {
		pipe.discoverer = discovery.NewClient(discovery.WithLogger(pipe.logger))
	}
	pipe.logger = pipe.logger.With(logkeys.Pipeline, def.ID)

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

func (p *Pipeline) ID() string        { return p.def.ID }
func (p *Pipeline) Name() string      { return p.def.Name }
func (p *Pipeline) GuideLink() string { return p.def.GuideLink }

// Run returns the state shared by the steps of the current run.
func (p *Pipeline) Run() *RunContext {
	return &p.run
}

// Workspace returns the artifact store, nil if none was configured.
func (p *Pipeline) Workspace() *workspace.Workspace {
	return p.workspace
}

// Logger returns the pipeline logger carrying the values attached to ctx, such as the run id.
func (p *Pipeline) Logger(ctx context.Context) log.Logger {
	return ctxlog.Logger(ctx, p.logger)
}

// SetInput provides the value of an input before execution.
func (p *Pipeline) SetInput(id, value string) {
	p.inputs[id] = value
}

// Input returns the value provided for id.
func (p *Pipeline) Input(id string) (string, bool) {
	v, ok := p.inputs[id]
	return v, ok
}

// Inputs returns a copy of the provided inputs.
func (p *Pipeline) Inputs() map[string]string {
	res := make(map[string]string, len(p.inputs))
	for k, v := range p.inputs {
		res[k] = v
	}

	return res
}

// RequiredInputs returns the inputs the steps declared, deduplicated by id, in declaration order.
func (p *Pipeline) RequiredInputs() []StepInput {
	return append([]StepInput(nil), p.requiredInputs...)
}

// StepNames returns the names of the built steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}

	return names
}

// Initialize builds the steps and aggregates their inputs. It may be called again to rebuild
// them and does not reset run state.
func (p *Pipeline) Initialize() {
	steps, inputs := p.build()
	p.steps = steps
	p.requiredInputs = distinctInputs(inputs)
	p.initialized = true
}

func (p *Pipeline) build() ([]Step, []StepInput) {
	factories := make([]StepFactory, 0, len(p.def.Steps)+1)
	if p.def.SetupAccessor != nil {
		factories = append(factories, p.def.SetupAccessor)
	}
	factories = append(factories, p.def.Steps...)

	steps := make([]Step, 0, len(factories))
	var inputs []StepInput
	for _, factory := range factories {
		step := factory(p)
		steps = append(steps, step)
		inputs = append(inputs, step.Inputs()...)
	}

	return steps, inputs
}

// distinctInputs keeps the first declaration of each id. An input is optional only if
// every step declaring it marks it optional.
func distinctInputs(inputs []StepInput) []StepInput {
	res := []StepInput{}
	seen := make(map[string]int, len(inputs))
	for _, in := range inputs {
		if i, ok := seen[in.ID]; ok {
			res[i].Optional = res[i].Optional && in.Optional
			continue
		}
		seen[in.ID] = len(res)
		res = append(res, in)
	}

	return res
}

func (p *Pipeline) checkInputs(required []StepInput) error {
	for _, in := range required {
		if in.Optional {
			continue
		}
		if _, ok := p.inputs[in.ID]; !ok {
			return &MissingInputError{ID: in.ID}
		}
	}

	return nil
}

// claim rejects runs on a pipeline that is not in a clean state, marking it Error.
func (p *Pipeline) claim() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != NotStarted {
		p.state = Error
		return ErrInvalidState
	}

	return nil
}

// Execute runs every step in order.
//
// Validation failures are returned before the pipeline is Running. A failing step leaves the
// pipeline in Error and its failure is returned as a *StepError. Cancellation leaves the
// pipeline in Cancelled and returns nil.
func (p *Pipeline) Execute(ctx context.Context) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	err := p.claim()
	if err != nil {
		return err
	}
	err = p.checkInputs(p.requiredInputs)
	if err != nil {
		return err
	}

	ctx, run := p.startRun(ctx, model.RunKindExecute, p.steps)
	err = p.runSteps(ctx, run, p.steps)
	p.finishRun(ctx, run)

	return err
}

// DownloadTitleList lists the titles reachable through the pipeline's accessor, without
// patching anything. The pipeline is reset afterwards whatever the outcome.
func (p *Pipeline) DownloadTitleList(ctx context.Context) ([]title.Info, error) {
	err := p.claim()
	if err != nil {
		return nil, err
	}
	if !p.def.canListTitles() {
		return nil, ErrUnsupportedOperation
	}

	steps := []Step{p.def.SetupAccessor(p), p.def.ListTitles(p)}
	var inputs []StepInput
	for _, step := range steps {
		inputs = append(inputs, step.Inputs()...)
	}
	err = p.checkInputs(distinctInputs(inputs))
	if err != nil {
		return nil, err
	}

	p.run.TitleList = nil
	defer p.Reset()

	ctx, run := p.startRun(ctx, model.RunKindListTitles, steps)
	err = p.runSteps(ctx, run, steps)
	p.finishRun(ctx, run)
	if err != nil {
		return nil, err
	}
	if p.run.TitleList == nil {
		return nil, ErrDownloadFailed
	}

	return p.run.TitleList, nil
}

func (p *Pipeline) startRun(ctx context.Context, kind model.RunKind, steps []Step) (context.Context, *model.RunInfo) {
	run := &model.RunInfo{
		ID:         uuid.NewString(),
		PipelineID: p.def.ID,
		Kind:       kind,
		Steps:      make([]*model.StepInfo, len(steps)),
		StartTime:  time.Now(),
	}
	for i, step := range steps {
		run.Steps[i] = &model.StepInfo{Name: step.Name(), Index: i + 1, Total: len(steps)}
	}

	p.mu.Lock()
	p.state = Running
	p.runID = run.ID
	p.mu.Unlock()

	ctx = context.WithValue(ctx, ctxKeyRunID, run.ID)
	ctx = ctxlog.AddFunc(ctx, ctxlog.SimpleStringFunc(logkeys.RunID, ctxKeyRunID))

	p.Logger(ctx).Info(logkeys.Message, "pipeline started", logkeys.RunKind, string(kind), logkeys.StepCount, len(steps))
	p.hook(ctx, "start run", func(opt model.PipelineOption) error {
		return opt.StartRun(run)
	})

	return ctx, run
}

func (p *Pipeline) finishRun(ctx context.Context, run *model.RunInfo) {
	p.mu.Lock()
	if p.state == Running {
		p.state = Finished
	}
	state := p.state
	p.mu.Unlock()

	run.State = state.String()
	p.Logger(ctx).Info(
		logkeys.Message, "pipeline "+state.String(),
		logkeys.RunKind, string(run.Kind),
		logkeys.Elapsed, time.Since(run.StartTime).String(),
	)
	p.hook(ctx, "finish run", func(opt model.PipelineOption) error {
		return opt.FinishRun(run)
	})
}

func (p *Pipeline) hook(ctx context.Context, name string, fn func(opt model.PipelineOption) error) {
	for _, opt := range p.opts {
		err := fn(opt)
		if err != nil {
			p.Logger(ctx).Info(logkeys.Message, "pipeline option failed to "+name, logkeys.Error, err)
		}
	}
}

// InvokeAutoDiscover resolves endpoint and keeps the response for later steps.
// A nil response means the endpoint does not support discovery.
func (p *Pipeline) InvokeAutoDiscover(ctx context.Context, endpoint string) (*discovery.Response, error) {
	resp, err := p.discoverer.Discover(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to autodiscover %s", endpoint)
	}
	if resp != nil {
		p.run.AutoDiscover = resp
	}

	return resp, nil
}

// Reset returns the pipeline to NotStarted. It clears the inputs, releases the accessor,
// drops the run state and rebuilds fresh steps.
func (p *Pipeline) Reset() {
	p.inputs = make(map[string]string)

	p.mu.Lock()
	p.state = NotStarted
	p.runID = ""
	p.stepCount = 0
	p.currentIdx = 0
	p.currentStep = nil
	p.mu.Unlock()

	if p.run.Accessor != nil {
		err := p.run.Accessor.Close()
		if err != nil {
			p.logger.Info(logkeys.Message, "unable to release accessor", logkeys.Error, err)
		}
	}
	p.run.Accessor = nil
	p.run.Patcher = nil
	p.run.Title = nil
	p.run.Encryption = nil

	if p.workspace != nil {
		err := p.workspace.Clear()
		if err != nil {
			p.logger.Info(logkeys.Message, "unable to clear workspace", logkeys.Error, err)
		}
	}

	if p.initialized {
		p.steps, _ = p.build()
	}
}

// State returns the run state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state
}

// RunID returns the id of the current or last run, empty after Reset.
func (p *Pipeline) RunID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.runID
}

// CurrentStep returns the in-flight step's name and 1-based index, or ok false before any step ran.
func (p *Pipeline) CurrentStep() (name string, index int, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.currentStep == nil {
		return "", 0, false
	}

	return p.currentStep.Name(), p.currentIdx, true
}

// Progress returns the run progress in [0, 1]. It is 1 only once the pipeline is Finished.
func (p *Pipeline) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == Finished {
		return 1
	}
	if p.stepCount == 0 || p.currentIdx == 0 {
		return 0
	}

	completed := float64(p.currentIdx-1) / float64(p.stepCount)
	stepWeight := 1 / float64(p.stepCount)
	current := 0.0
	if p.currentStep != nil {
		current = p.currentStep.Progress()
	}

	return completed + current*stepWeight
}

// CurrentStepProgress returns the in-flight step's own progress.
func (p *Pipeline) CurrentStepProgress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == Finished {
		return 1
	}
	if p.currentStep == nil {
		return 0
	}

	return p.currentStep.Progress()
}
