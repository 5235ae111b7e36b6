package drawer

import (
	"time"

	"github.com/askiada/go-refresher/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline run.
type Drawer interface {
	// Reset drops the steps and links of the previous run.
	Reset() error
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and child steps.
	AddLink(parentStepName, childStepName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime labels the step with the time elapsed since startTime.
	SetTotalTime(stepName string, startTime time.Time) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
