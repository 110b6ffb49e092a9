// Package connector defines the interface for executing commands on target systems.
package connector

import (
	"context"
)

// Result is the outcome of one command. It is never retried automatically.
type Result struct {
	// ExitCode is the exit status reported by the target.
	ExitCode int

	// Output is the combined stdout and stderr text.
	Output string
}

// Success reports whether the command exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Connector is the interface for connecting to and executing commands on targets.
//
// A connector runs one command at a time; callers must not rely on
// interleaving commands on the same connector.
type Connector interface {
	// Connect establishes a connection to the target.
	Connect(ctx context.Context) error

	// Execute runs a command on the target and returns the result.
	// A non-zero exit code is not an error; only transport failures are.
	Execute(ctx context.Context, cmd string) (Result, error)

	// Close terminates the connection.
	Close() error

	// String returns a human-readable description of the connection.
	String() string
}
