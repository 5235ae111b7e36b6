// Package steps provides the steps patch pipelines are assembled from.
//
// Steps hand artifacts to each other through the pipeline workspace under the keys declared
// here, and through the run context for everything else. A pipeline using any EBOOT step must be
// created with a workspace.
package steps
