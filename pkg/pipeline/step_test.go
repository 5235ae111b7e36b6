package pipeline_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/pipeline"
)

func newBaseStep(t *testing.T, inputs ...pipeline.StepInput) *pipeline.BaseStep {
	t.Helper()
	pipe, err := pipeline.New(pipeline.Definition{ID: "test"})
	require.NoError(t, err)

	return pipeline.NewBaseStep(pipe, "step", inputs...)
}

func TestSetProgress(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		value float64
		want  float64
	}{
		"in range":  {value: 0.3, want: 0.3},
		"negative":  {value: -1, want: 0},
		"above one": {value: 1.5, want: 1},
		"nan":       {value: math.NaN(), want: 0},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			step := newBaseStep(t)
			assert.Equal(t, 0.0, step.Progress())
			step.SetProgress(tc.value)
			assert.Equal(t, tc.want, step.Progress())
		})
	}
}

func TestBaseStepInputs(t *testing.T) {
	t.Parallel()

	step := newBaseStep(t, input("id"), input("region"))
	assert.Equal(t, "step", step.Name())
	assert.NotNil(t, step.Pipeline())

	inputs := step.Inputs()
	inputs[0].ID = "changed"
	assert.Equal(t, "id", step.Inputs()[0].ID, "callers get a copy")
}

func TestBestEffort(t *testing.T) {
	t.Parallel()

	step := newBaseStep(t)

	err := step.BestEffort(context.Background(), "optional work", func(context.Context) error {
		return assert.AnError
	})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	err = step.BestEffort(ctx, "optional work", func(context.Context) error {
		cancel()
		return assert.AnError
	})
	assert.ErrorIs(t, err, context.Canceled)

	called := false
	err = step.BestEffort(context.Background(), "optional work", func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
