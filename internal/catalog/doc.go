// Package catalog implements the durable, deduplicated table store shared by
// the HQ and Edge tiers. Writes append; reads merge keep-last per asset id,
// so replaying the same asset never creates divergent rows. Reads report
// absent rather than failing when a table does not exist yet.
package catalog
