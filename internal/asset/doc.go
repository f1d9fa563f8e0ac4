// Package asset defines the asset data model shared by the HQ and Edge
// tiers: the Stage and Status enums, snapshot-copy semantics, and the wire
// codec used on stream topics.
package asset
