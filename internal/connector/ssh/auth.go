package ssh

import (
	"fmt"
	"os"

	"github.com/melbahja/goph"

	"github.com/eugenetaranov/hatch/internal/config"
	"github.com/eugenetaranov/hatch/internal/pathutil"
)

// Credentials is one of Password or PrivateKey.
type Credentials interface {
	auth() (goph.Auth, error)
	String() string
}

// Password authenticates with a plain password.
type Password string

func (p Password) auth() (goph.Auth, error) {
	return goph.Password(string(p)), nil
}

// String never includes the password itself.
func (p Password) String() string {
	return "password"
}

// PrivateKey authenticates with the contents of a private key file.
type PrivateKey struct {
	Contents   string
	Passphrase *string
}

func (k PrivateKey) auth() (goph.Auth, error) {
	passphrase := ""
	if k.Passphrase != nil {
		passphrase = *k.Passphrase
	}

	auth, err := goph.RawKey(k.Contents, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return auth, nil
}

// String never includes the key material.
func (k PrivateKey) String() string {
	return "private key"
}

// ResolveAuth picks the authentication method from args and cfg, reading the
// private key from disk when no password is set anywhere.
func ResolveAuth(args config.Args, cfg *config.Config) (Credentials, error) {
	return ResolveAuthWith(args, cfg, pathutil.HomeDir, os.ReadFile)
}

// ResolveAuthWith is ResolveAuth with an injectable home resolver and file reader.
//
// Configuration overrides arguments field by field. Any non-empty password
// selects password auth. A password present but empty in the configuration
// hides the argument password and falls through to key auth.
func ResolveAuthWith(args config.Args, cfg *config.Config, home pathutil.HomeResolver, readFile func(string) ([]byte, error)) (Credentials, error) {
	section := cfg.Section()

	password := config.Resolve(section.RemotePassword, args.RemotePassword, "")
	if password != "" {
		return Password(password), nil
	}

	keyFile := resolvePtr(section.RemoteKeyFile, args.RemoteKeyFile)
	if keyFile == nil {
		return nil, ErrNoPrivateKeyFile
	}

	path := pathutil.ExpandTilde(*keyFile, home)
	contents, err := readFile(path)
	if err != nil {
		return nil, &KeyFileError{Path: path, Err: err}
	}

	return PrivateKey{
		Contents:   string(contents),
		Passphrase: resolvePtr(section.RemoteKeyPassphrase, args.RemoteKeyPassphrase),
	}, nil
}

func resolvePtr[T any](cfg, arg *T) *T {
	if cfg != nil {
		return cfg
	}
	return arg
}
