package pipeline

import "github.com/pkg/errors"

// Definition declares a kind of pipeline: its identity and its steps in execution order.
type Definition struct {
	ID        string
	Name      string
	GuideLink string

	// SetupAccessor, when set, runs before Steps and provides the run's accessor.
	SetupAccessor StepFactory
	// ListTitles enumerates the titles reachable through the accessor.
	// DownloadTitleList needs both SetupAccessor and ListTitles.
	ListTitles StepFactory
	Steps      []StepFactory
}

func (d *Definition) validate() error {
	if d.ID == "" {
		return errors.Wrap(ErrInvalidDefinition, "id must be set")
	}
	for i, factory := range d.Steps {
		if factory == nil {
			return errors.Wrapf(ErrInvalidDefinition, "step %d has no factory", i+1)
		}
	}

	return nil
}

func (d *Definition) canListTitles() bool {
	return d.SetupAccessor != nil && d.ListTitles != nil
}
