package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/pipeline/measure"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m measure.Measure
}

func (pd *pipelineDrawer) New() error {
	return nil
}

// StartRun draws the chain start -> steps -> end of the run.
func (pd *pipelineDrawer) StartRun(run *model.RunInfo) error {
	err := pd.Reset()
	if err != nil {
		return errors.Wrap(err, "unable to reset drawer")
	}
	err = pd.AddStep(model.StartStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	parent := model.StartStep.Name
	for _, step := range run.Steps {
		err := pd.AddStep(step.Key())
		if err != nil {
			return err
		}
		err = pd.AddLink(parent, step.Key())
		if err != nil {
			return err
		}
		parent = step.Key()
	}

	return pd.AddLink(parent, model.EndStep.Name)
}

func (pd *pipelineDrawer) BeforeStep(*model.RunInfo, *model.StepInfo) error {
	return nil
}

func (pd *pipelineDrawer) AfterStep(*model.RunInfo, *model.StepInfo, time.Duration, error) error {
	return nil
}

// FinishRun labels the graph with the run measures and draws it.
func (pd *pipelineDrawer) FinishRun(run *model.RunInfo) error {
	err := pd.SetTotalTime(model.EndStep.Name, run.StartTime)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}
	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws every run with drawer, labelled with measure when it is not nil.
// Register the measure option before the drawer so step durations are recorded first.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure}
}
