// Package retrieval materializes asset bytes into tier directories, either
// by local copy (offline mode) or HTTP download, including the
// metadata-indirected full-resolution originals served beside an asset href.
package retrieval
