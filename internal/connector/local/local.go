// Package local provides a connector for executing commands on the local machine.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"runtime"

	"github.com/eugenetaranov/hatch/internal/connector"
)

// Connector executes commands on the local machine.
type Connector struct {
	shell     string
	shellArgs []string
}

// Option configures the local connector.
type Option func(*Connector)

// WithShell sets a custom shell for command execution.
func WithShell(shell string, args ...string) Option {
	return func(c *Connector) {
		c.shell = shell
		c.shellArgs = args
	}
}

// New creates a new local connector using /bin/sh -c.
func New(opts ...Option) *Connector {
	c := &Connector{
		shell:     "/bin/sh",
		shellArgs: []string{"-c"},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect verifies the platform is one hatch can probe.
func (c *Connector) Connect(ctx context.Context) error {
	switch runtime.GOOS {
	case "darwin", "linux":
		return nil
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Execute runs a command locally and returns the result.
func (c *Connector) Execute(ctx context.Context, cmd string) (connector.Result, error) {
	args := append(append([]string{}, c.shellArgs...), cmd)
	execCmd := exec.CommandContext(ctx, c.shell, args...)

	out, err := execCmd.CombinedOutput()
	result := connector.Result{Output: string(out)}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Command failed to start
			return connector.Result{}, fmt.Errorf("failed to execute command: %w", err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// Close is a no-op for local connections.
func (c *Connector) Close() error {
	return nil
}

// String returns a description of the connection.
func (c *Connector) String() string {
	u, err := user.Current()
	if err != nil {
		return "local"
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	return fmt.Sprintf("local://%s@%s", u.Username, hostname)
}

// Ensure Connector implements the connector.Connector interface.
var _ connector.Connector = (*Connector)(nil)
