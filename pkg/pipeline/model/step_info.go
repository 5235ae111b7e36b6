package model

import (
	"fmt"
	"time"
)

// StepInfo describes one step of a run.
type StepInfo struct {
	Name string
	// Index is 1-based.
	Index int
	Total int
}

// Key identifies the step within its run. Step names may repeat, keys do not.
func (s *StepInfo) Key() string {
	return fmt.Sprintf("%d. %s", s.Index, s.Name)
}

var (
	StartStep = &StepInfo{Name: "start"}
	EndStep   = &StepInfo{Name: "end"}
)

// RunKind tells a full patch run from a title listing run.
type RunKind string

const (
	RunKindExecute    RunKind = "execute"
	RunKindListTitles RunKind = "list-titles"
)

// RunInfo describes a run. State is filled in when the run finishes.
type RunInfo struct {
	ID         string
	PipelineID string
	Kind       RunKind
	Steps      []*StepInfo
	StartTime  time.Time
	State      string
}
