// Package model provides the data structures shared between the pipeline package and its options.
// It defines the step and run descriptions handed to pipeline options, and the hooks options implement.
package model
