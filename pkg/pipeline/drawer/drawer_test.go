package drawer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/pipeline/drawer"
	"github.com/askiada/go-refresher/pkg/pipeline/measure"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
)

func TestDOTDrawer(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "graph.dot")
	d := drawer.NewDOTDrawer(file)
	require.NoError(t, d.AddStep("a"))
	require.NoError(t, d.AddStep("b"))
	require.NoError(t, d.AddLink("a", "b"))
	assert.Error(t, d.AddLink("a", "missing"))
	require.NoError(t, d.Draw())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "strict digraph")
	assert.Contains(t, string(data), `"a" -> "b"`)

	require.NoError(t, d.Reset())
	require.NoError(t, d.AddStep("a"), "reset drops previous vertices")
}

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "graph.dot")
	m := measure.NewDefaultMeasure()
	msrOpt := measure.PipelineMeasure(m)
	opt := drawer.PipelineDrawer(drawer.NewDOTDrawer(file), m)
	require.NoError(t, msrOpt.New())
	require.NoError(t, opt.New())

	run := &model.RunInfo{
		ID: "run",
		Steps: []*model.StepInfo{
			{Name: "download", Index: 1, Total: 2},
			{Name: "upload", Index: 2, Total: 2},
		},
		StartTime: time.Now(),
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, msrOpt.StartRun(run))
		require.NoError(t, opt.StartRun(run), "each run starts a new graph")
	}
	require.NoError(t, msrOpt.AfterStep(run, run.Steps[0], time.Second, nil))
	require.NoError(t, msrOpt.AfterStep(run, run.Steps[1], 3*time.Second, assert.AnError))
	require.NoError(t, opt.FinishRun(run))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"start" -> "1. download"`)
	assert.Contains(t, out, `"1. download" -> "2. upload"`)
	assert.Contains(t, out, `"2. upload" -> "end"`)
	assert.Contains(t, strings.ToLower(out), `color="#0000f0"`, "fastest step is blue")
	assert.Contains(t, out, `fillcolor="#ff0000"`)
	assert.Contains(t, out, "3s")
}
