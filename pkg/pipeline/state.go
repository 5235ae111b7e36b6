package pipeline

// State is the run state of a pipeline.
type State int

const (
	NotStarted State = iota
	Running
	Finished
	Cancelled
	Error
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether a run in this state is over.
func (s State) Terminal() bool {
	return s == Finished || s == Cancelled || s == Error
}
