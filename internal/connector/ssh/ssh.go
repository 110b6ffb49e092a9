// Package ssh provides a connector that runs commands on a remote host over SSH.
//
// Host keys are not verified. hatch is meant for freshly provisioned or
// otherwise trusted machines; do not point it at hosts you cannot trust.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/melbahja/goph"
	"github.com/projectdiscovery/gologger"
	gossh "golang.org/x/crypto/ssh"

	"github.com/eugenetaranov/hatch/internal/config"
	"github.com/eugenetaranov/hatch/internal/connector"
)

const defaultDialTimeout = 10 * time.Second

// Connector executes commands over a single SSH connection.
type Connector struct {
	target  Target
	creds   Credentials
	timeout time.Duration
	id      string

	mu     sync.Mutex
	client *goph.Client

	// abandoned tracks dials left running after their context was cancelled.
	abandoned sync.WaitGroup
}

// Option configures the SSH connector.
type Option func(*Connector)

// WithTimeout sets the dial timeout for the handshake.
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.timeout = d
	}
}

// New creates an unconnected SSH connector.
func New(target Target, creds Credentials, opts ...Option) *Connector {
	c := &Connector{
		target:  target,
		creds:   creds,
		timeout: defaultDialTimeout,
		id:      uuid.NewString(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Dial resolves the target and credentials from args and cfg and connects.
// The caller owns the returned connector and must Close it.
func Dial(ctx context.Context, args config.Args, cfg *config.Config, opts ...Option) (*Connector, error) {
	target := ResolveTarget(args, cfg)

	creds, err := ResolveAuth(args, cfg)
	if err != nil {
		return nil, err
	}

	c := New(target, creds, opts...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect performs the SSH handshake. Credentials are dropped afterwards,
// whether the handshake succeeded or not.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	creds := c.creds
	c.creds = nil
	if creds == nil {
		return ErrNoCredentials
	}

	if c.target.Port < 1 || c.target.Port > 65535 {
		return &ConnectionError{Target: c.target, Err: fmt.Errorf("invalid port %d", c.target.Port)}
	}

	auth, err := creds.auth()
	if err != nil {
		return err
	}

	gologger.Debug().Str("session", c.id).Msgf("connecting to %s using %s", c.target, creds)

	cfg := &goph.Config{
		Auth:     auth,
		User:     c.target.User,
		Addr:     c.target.Host,
		Port:     uint(c.target.Port),
		Timeout:  c.timeout,
		Callback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // trusted provisioning targets only
	}

	type dialResult struct {
		client *goph.Client
		err    error
	}
	done := make(chan dialResult, 1)
	go func() {
		client, err := goph.NewConn(cfg)
		done <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		c.abandoned.Add(1)
		go func() {
			defer c.abandoned.Done()
			// goph returns a client wrapping a nil connection on failure.
			if r := <-done; r.err == nil && r.client != nil {
				_ = r.client.Close()
			}
		}()
		return &ConnectionError{Target: c.target, Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return &ConnectionError{Target: c.target, Err: r.err}
		}
		c.client = r.client
	}

	gologger.Debug().Str("session", c.id).Msgf("connected to %s", c.target)
	return nil
}

// Execute runs cmd in a new session on the connection. Commands on one
// connector never overlap.
func (c *Connector) Execute(ctx context.Context, cmd string) (connector.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return connector.Result{}, ErrNotConnected
	}

	session, err := c.client.NewSession()
	if err != nil {
		return connector.Result{}, fmt.Errorf("failed to create SSH session on %s: %w", c.target.Host, err)
	}
	defer func() { _ = session.Close() }()

	var (
		out    []byte
		runErr error
	)
	done := make(chan struct{})
	go func() {
		out, runErr = session.CombinedOutput(cmd)
		close(done)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(gossh.SIGKILL)
		_ = session.Close()
		<-done
		return connector.Result{}, ctx.Err()
	case <-done:
	}

	if runErr != nil {
		var exitErr *gossh.ExitError
		if errors.As(runErr, &exitErr) {
			return connector.Result{ExitCode: exitErr.ExitStatus(), Output: string(out)}, nil
		}
		return connector.Result{}, fmt.Errorf("command failed on %s: %w", c.target.Host, runErr)
	}

	return connector.Result{Output: string(out)}, nil
}

// Close releases the connection. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	gologger.Debug().Str("session", c.id).Msgf("closed connection to %s", c.target)
	return err
}

// Target returns the resolved connection target.
func (c *Connector) Target() Target {
	return c.target
}

// String returns a description of the connection.
func (c *Connector) String() string {
	return fmt.Sprintf("ssh://%s", c.target)
}

// Ensure Connector implements the connector.Connector interface.
var _ connector.Connector = (*Connector)(nil)
