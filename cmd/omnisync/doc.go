// Package main hosts the omnisync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands work to the
// internal packages: generate runs the lip-sync pipeline, runs reads the
// history store, deps and config cover environment setup, and train exposes
// the training scaffold. Keep heavy lifting in internal packages and surface it
// here through flags.
package main
