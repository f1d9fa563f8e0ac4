// Command uplink runs the HQ and edge halves of the asset pipeline and
// provides inspection commands for the catalog and configuration.
package main
