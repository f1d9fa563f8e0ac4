// Package hq implements the central-site half of the pipeline: stage-driven
// asset processing from selection through broadcast, and fulfillment of
// edge requests into the replicated directory.
package hq
