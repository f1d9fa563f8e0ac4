// Package services provides shared error classification helpers used by the
// pipeline engines. Failures never cross component boundaries as faults in
// steady state; these sentinels let call sites classify before converting a
// failure into a failed-tagged snapshot.
package services
