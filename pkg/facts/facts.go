// Package facts gathers descriptive system information from target hosts.
//
// Facts are informational only. The OS family used for decisions comes
// from probe.OSInfo; everything else here is shown to the user as is.
package facts

import (
	"context"
	"strings"

	"github.com/eugenetaranov/hatch/internal/connector"
	"github.com/eugenetaranov/hatch/internal/probe"
	"github.com/eugenetaranov/hatch/internal/shell"
)

// Facts describes a target host. Fields that could not be gathered are empty.
type Facts struct {
	OS           probe.Os `json:"os"`
	Hostname     string   `json:"hostname,omitempty"`
	Kernel       string   `json:"kernel,omitempty"`
	Architecture string   `json:"architecture,omitempty"`
	Arch         string   `json:"arch,omitempty"`
	Distribution string   `json:"distribution,omitempty"`
	Version      string   `json:"version,omitempty"`
	PrettyName   string   `json:"pretty_name,omitempty"`
}

// Gather collects system facts from the target. It never fails; commands
// that error or exit non-zero leave their field empty.
func Gather(ctx context.Context, conn connector.Connector) Facts {
	f := Facts{OS: probe.OSInfo(ctx, conn)}

	f.Hostname = firstLine(ctx, conn, "hostname")
	f.Kernel = firstLine(ctx, conn, "uname -r")

	f.Architecture = firstLine(ctx, conn, "uname -m")
	f.Arch = normalizeArch(f.Architecture)

	if res, err := shell.Silent(ctx, conn, "cat /etc/os-release 2>/dev/null"); err == nil && res.Success() {
		osRelease := parseOSRelease(res.Output)
		f.Distribution = osRelease["ID"]
		f.Version = osRelease["VERSION_ID"]
		f.PrettyName = osRelease["PRETTY_NAME"]
	}

	return f
}

// firstLine runs cmd and returns its trimmed output, or "" on any failure.
func firstLine(ctx context.Context, conn connector.Connector, cmd string) string {
	res, err := shell.Silent(ctx, conn, cmd)
	if err != nil || !res.Success() {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// normalizeArch maps uname -m output to Go-style architecture names.
func normalizeArch(arch string) string {
	switch arch {
	case "x86_64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	case "armv7l":
		return "arm"
	default:
		return arch
	}
}

// parseOSRelease parses /etc/os-release format.
func parseOSRelease(content string) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "="); idx > 0 {
			key := line[:idx]
			value := strings.Trim(line[idx+1:], "\"'")
			result[key] = value
		}
	}
	return result
}
