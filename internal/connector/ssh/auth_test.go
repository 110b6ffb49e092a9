package ssh

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/hatch/internal/config"
)

func homeAt(dir string) func() (string, bool) {
	return func() (string, bool) { return dir, true }
}

// readOnly returns a file reader that serves a single path.
func readOnly(path, contents string) func(string) ([]byte, error) {
	return func(p string) ([]byte, error) {
		if p != path {
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
		}
		return []byte(contents), nil
	}
}

func failRead(t *testing.T) func(string) ([]byte, error) {
	return func(p string) ([]byte, error) {
		t.Fatalf("unexpected read of %s", p)
		return nil, nil
	}
}

func TestResolveAuth_Password(t *testing.T) {
	tests := []struct {
		name string
		args config.Args
		cfg  *config.Config
		want Credentials
	}{
		{
			name: "config password wins over argument",
			args: config.Args{RemotePassword: config.Ptr("argpw")},
			cfg:  &config.Config{SSH: &config.SSH{RemotePassword: config.Ptr("cfgpw")}},
			want: Password("cfgpw"),
		},
		{
			name: "argument password when config has none",
			args: config.Args{RemotePassword: config.Ptr("argpw")},
			cfg:  &config.Config{SSH: &config.SSH{RemoteHost: config.Ptr("a")}},
			want: Password("argpw"),
		},
		{
			name: "argument password without ssh section",
			args: config.Args{RemotePassword: config.Ptr("argpw")},
			cfg:  &config.Config{},
			want: Password("argpw"),
		},
		{
			name: "argument password with nil config",
			args: config.Args{RemotePassword: config.Ptr("argpw")},
			cfg:  nil,
			want: Password("argpw"),
		},
		{
			name: "password beats key file",
			args: config.Args{RemoteKeyFile: config.Ptr("~/.ssh/id_rsa")},
			cfg:  &config.Config{SSH: &config.SSH{RemotePassword: config.Ptr("cfgpw")}},
			want: Password("cfgpw"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAuthWith(tt.args, tt.cfg, homeAt("/home/u"), failRead(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAuth_PrivateKey(t *testing.T) {
	t.Run("config key file wins and tilde is expanded", func(t *testing.T) {
		args := config.Args{RemoteKeyFile: config.Ptr("/args/key")}
		cfg := &config.Config{SSH: &config.SSH{RemoteKeyFile: config.Ptr("~/.ssh/id_ed25519")}}

		got, err := ResolveAuthWith(args, cfg, homeAt("/home/u"), readOnly("/home/u/.ssh/id_ed25519", "KEY"))
		require.NoError(t, err)
		assert.Equal(t, PrivateKey{Contents: "KEY"}, got)
	})

	t.Run("argument key file", func(t *testing.T) {
		args := config.Args{RemoteKeyFile: config.Ptr("/args/key")}

		got, err := ResolveAuthWith(args, nil, homeAt("/home/u"), readOnly("/args/key", "ARGKEY"))
		require.NoError(t, err)
		assert.Equal(t, PrivateKey{Contents: "ARGKEY"}, got)
	})

	t.Run("empty config password hides argument password", func(t *testing.T) {
		args := config.Args{
			RemotePassword: config.Ptr("argpw"),
			RemoteKeyFile:  config.Ptr("/args/key"),
		}
		cfg := &config.Config{SSH: &config.SSH{RemotePassword: config.Ptr("")}}

		got, err := ResolveAuthWith(args, cfg, homeAt("/home/u"), readOnly("/args/key", "K"))
		require.NoError(t, err)
		assert.IsType(t, PrivateKey{}, got)
	})

	t.Run("passphrase resolved with the same priority", func(t *testing.T) {
		args := config.Args{
			RemoteKeyFile:       config.Ptr("/k"),
			RemoteKeyPassphrase: config.Ptr("argphrase"),
		}
		cfg := &config.Config{SSH: &config.SSH{RemoteKeyPassphrase: config.Ptr("cfgphrase")}}

		got, err := ResolveAuthWith(args, cfg, homeAt("/home/u"), readOnly("/k", "K"))
		require.NoError(t, err)
		key := got.(PrivateKey)
		require.NotNil(t, key.Passphrase)
		assert.Equal(t, "cfgphrase", *key.Passphrase)
	})
}

func TestResolveAuth_Errors(t *testing.T) {
	t.Run("nothing provided", func(t *testing.T) {
		_, err := ResolveAuthWith(config.Args{}, &config.Config{}, homeAt("/home/u"), failRead(t))
		require.ErrorIs(t, err, ErrNoPrivateKeyFile)
		assert.Equal(t, "no private key file provided", err.Error())
	})

	t.Run("unreadable key names the expanded path", func(t *testing.T) {
		args := config.Args{RemoteKeyFile: config.Ptr("~/.ssh/missing")}

		_, err := ResolveAuthWith(args, nil, homeAt("/home/u"), readOnly("/elsewhere", ""))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPrivateKey)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), "/home/u/.ssh/missing")

		var keyErr *KeyFileError
		require.True(t, errors.As(err, &keyErr))
		assert.Equal(t, "/home/u/.ssh/missing", keyErr.Path)
	})
}

func TestResolveAuth_ReadsRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_test")
	require.NoError(t, os.WriteFile(path, []byte("PEM DATA"), 0o600))

	got, err := ResolveAuth(config.Args{RemoteKeyFile: config.Ptr(path)}, nil)
	require.NoError(t, err)
	assert.Equal(t, PrivateKey{Contents: "PEM DATA"}, got)
}

func TestCredentialsStringHidesSecrets(t *testing.T) {
	assert.Equal(t, "password", Password("hunter2").String())
	assert.Equal(t, "private key", PrivateKey{Contents: "secret"}.String())
}

func TestPrivateKeyAuth_Invalid(t *testing.T) {
	_, err := PrivateKey{Contents: "not a key"}.auth()
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}
