// Package app wires a run configuration into a training session: it builds
// the tape and network, drives the trainer with its reporters and logs the
// learned parameters. It is decoupled from the CLI entrypoint.
package app
