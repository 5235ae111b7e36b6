package measure

import (
	"time"

	"github.com/askiada/go-refresher/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

// StartRun replaces the metrics of the previous run with one metric per step.
func (pm *pipelineMeasure) StartRun(run *model.RunInfo) error {
	pm.Reset()
	for _, step := range run.Steps {
		pm.AddMetric(step.Key())
	}

	return nil
}

func (pm *pipelineMeasure) BeforeStep(*model.RunInfo, *model.StepInfo) error {
	return nil
}

func (pm *pipelineMeasure) AfterStep(_ *model.RunInfo, step *model.StepInfo, elapsed time.Duration, err error) error {
	mt := pm.GetMetric(step.Key())
	if mt == nil {
		mt = pm.AddMetric(step.Key())
	}
	mt.AddDuration(elapsed)
	if err != nil {
		mt.MarkFailed(err)
	}

	return nil
}

func (pm *pipelineMeasure) FinishRun(*model.RunInfo) error {
	return nil
}

// PipelineMeasure records the duration of every step of a run into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
