package measure

import "time"

// Measure collects the metrics of the steps of a run.
type Measure interface {
	// Reset drops every metric.
	Reset()
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the executions of one step.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	TotalDuration() time.Duration
	Count() int64
	MarkFailed(err error)
	Failed() error
}
