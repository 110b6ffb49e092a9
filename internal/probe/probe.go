// Package probe implements read-only remote queries. Probes never fail the
// calling sequence: errors become Unsupported, false, or (for Which) a
// descriptive error value.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eugenetaranov/hatch/internal/connector"
	"github.com/eugenetaranov/hatch/internal/shell"
)

// ErrNotInstalled is returned by Which when the command could not be run at all.
var ErrNotInstalled = errors.New("not installed")

// bashPrefix is prepended by bash to errors from `bash -c` commands.
const bashPrefix = "bash: line 1: "

// Os is the detected operating system family.
type Os int

const (
	Unsupported Os = iota
	Ubuntu
	Debian
)

func (o Os) String() string {
	switch o {
	case Ubuntu:
		return "ubuntu"
	case Debian:
		return "debian"
	default:
		return "unsupported"
	}
}

// MarshalText encodes the family by name.
func (o Os) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ParseOs classifies a `uname -a` line. Ubuntu is checked first since its
// kernels may also mention Debian.
func ParseOs(uname string) Os {
	switch {
	case strings.Contains(uname, "Ubuntu"):
		return Ubuntu
	case strings.Contains(uname, "Debian"):
		return Debian
	default:
		return Unsupported
	}
}

// OSInfo detects the remote OS family from `uname -a`.
func OSInfo(ctx context.Context, conn connector.Connector) Os {
	res, err := shell.Silent(ctx, conn, "uname -a")
	if err != nil {
		return Unsupported
	}
	return ParseOs(res.Output)
}

// Which runs a presence check such as "which docker" and returns its trimmed
// output on success.
func Which(ctx context.Context, conn connector.Connector, cmd string) (string, error) {
	res, err := shell.Silent(ctx, conn, cmd)
	if err != nil {
		return "", ErrNotInstalled
	}

	out := strings.TrimSpace(res.Output)
	if !res.Success() {
		reason := strings.ReplaceAll(out, bashPrefix, "")
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return "", errors.New(reason)
	}
	return out, nil
}

// SomeOutput reports whether cmd exits 0 and prints something.
func SomeOutput(ctx context.Context, conn connector.Connector, cmd string) bool {
	res, err := shell.Silent(ctx, conn, cmd)
	if err != nil {
		return false
	}
	return res.Success() && strings.TrimSpace(res.Output) != ""
}

// FileExists reports whether `ls -1 path` succeeds on the target. The path
// goes to the remote shell as is, so globs and ~ are expanded there.
func FileExists(ctx context.Context, conn connector.Connector, path string) bool {
	res, err := shell.Silent(ctx, conn, fmt.Sprintf("ls -1 %s", path))
	if err != nil {
		return false
	}
	return res.Success()
}
