// Package feed acquires the candidate asset pool, either from an offline
// collection+json file or from the live image search API, and flattens it
// into pipeline assets.
package feed
