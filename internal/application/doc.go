// Package application wires storage, the packer, HTTP handlers and the router
// into a runnable server. It also serves the embedded single page used to try
// packing runs from a browser, keeping the main package focused on CLI
// parsing and shutdown.
package application
