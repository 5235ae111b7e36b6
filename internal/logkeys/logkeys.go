// Package logkeys defines static logging keys for consistent structured logging output.
package logkeys

const (
	Message = "msg"
	Error   = "err"

	RunID    = "run_id"
	RunKind  = "run_kind"
	Pipeline = "pipeline"
	State    = "state"

	StepName  = "step"
	StepIndex = "step_index"
	StepCount = "step_count"
	Elapsed   = "elapsed"

	Path     = "path"
	TitleID  = "title_id"
	Endpoint = "endpoint"

	// a context-dependent numerical count/length of something
	GenericCount = "count"
)
