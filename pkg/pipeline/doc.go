// Package pipeline runs multi-stage file patching workflows.
//
// A pipeline kind is declared by a Definition: an ordered list of step factories, optionally
// preceded by a step that sets up the storage accessor. Initialize builds the steps and
// aggregates the inputs they declare, deduplicated by id. The caller provides those inputs and
// calls Execute, which runs the steps strictly one after the other.
//
// Steps communicate through the pipeline's RunContext: a step may replace any of its fields and
// later steps read them. The order of the steps in a Definition is therefore part of its
// correctness.
//
// A run ends in one of three states. Finished means every step succeeded. Error means a step
// failed, and Execute returns the failure. Cancelled means the context was done after a step
// returned; this is not an error and Execute returns nil. Reset must be called before the
// pipeline can run again.
//
// Progress is the share of completed steps plus the in-flight step's own progress weighted by
// one step. It reaches 1 only when the pipeline is Finished.
package pipeline
