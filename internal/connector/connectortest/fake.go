// Package connectortest provides an in-memory connector for tests.
package connectortest

import (
	"context"
	"errors"
	"sync"

	"github.com/eugenetaranov/hatch/internal/connector"
)

// ErrTransport is returned by Fake for commands registered with Fail.
var ErrTransport = errors.New("transport closed")

// Fake answers commands from a table. Unknown commands exit 127.
type Fake struct {
	mu        sync.Mutex
	responses map[string]connector.Result
	failures  map[string]error
	commands  []string
	closed    bool
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{
		responses: make(map[string]connector.Result),
		failures:  make(map[string]error),
	}
}

// On registers the result for cmd.
func (f *Fake) On(cmd string, exitCode int, output string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = connector.Result{ExitCode: exitCode, Output: output}
	return f
}

// Fail makes cmd return ErrTransport.
func (f *Fake) Fail(cmd string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[cmd] = ErrTransport
	return f
}

// Commands returns the commands executed so far, in order.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Connect is a no-op.
func (f *Fake) Connect(ctx context.Context) error {
	return nil
}

// Execute returns the registered result for cmd.
func (f *Fake) Execute(ctx context.Context, cmd string) (connector.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, cmd)
	if err := ctx.Err(); err != nil {
		return connector.Result{}, err
	}
	if err, ok := f.failures[cmd]; ok {
		return connector.Result{}, err
	}
	if res, ok := f.responses[cmd]; ok {
		return res, nil
	}
	return connector.Result{ExitCode: 127, Output: "bash: line 1: " + cmd + ": command not found\n"}, nil
}

// Close marks the fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// String returns a description of the connection.
func (f *Fake) String() string {
	return "fake://"
}

var _ connector.Connector = (*Fake)(nil)
