// Package workflow schedules the pipeline's drain passes. The manager runs
// each registered unit on a poll interval, serializing every unit with
// itself so a logical consumer is never drained from two passes at once.
package workflow
