// Package status collects tagged asset snapshots from the HQ and Edge
// engines into a bounded in-memory view for display and diagnostics.
package status
