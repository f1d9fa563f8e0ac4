// Package enrich calls an OpenAI-compatible vision endpoint to narrate and
// answer questions about materialized assets. All calls are best-effort:
// callers substitute the placeholder on failure and continue.
package enrich
