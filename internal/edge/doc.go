// Package edge implements the remote-site half of the protocol: receiving
// broadcast assets, requesting full-resolution copies, and completing them
// when fulfillment replies arrive.
package edge
