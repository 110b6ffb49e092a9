package ssh

import (
	"errors"
	"fmt"
)

// SSH connection errors
var (
	ErrNoPrivateKeyFile  = errors.New("no private key file provided")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrConnectionFailed  = errors.New("connection failed")
	ErrNotConnected      = errors.New("SSH connection not established")
	ErrNoCredentials     = errors.New("no credentials available, connector was already used")
)

// KeyFileError reports a private key file that could not be read.
type KeyFileError struct {
	Path string
	Err  error
}

func (e *KeyFileError) Error() string {
	return fmt.Sprintf("invalid private key %s: %v", e.Path, e.Err)
}

func (e *KeyFileError) Unwrap() []error {
	return []error{ErrInvalidPrivateKey, e.Err}
}

// ConnectionError reports a failed SSH handshake. Callers may retry or skip
// the host; it is never fatal on its own.
type ConnectionError struct {
	Target Target
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%v to %s: %v", ErrConnectionFailed, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnectionFailed, e.Err}
}
