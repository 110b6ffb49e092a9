package facts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eugenetaranov/hatch/internal/connector/connectortest"
	"github.com/eugenetaranov/hatch/internal/probe"
)

const ubuntuRelease = `PRETTY_NAME="Ubuntu 22.04.4 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
# comment
ID=ubuntu
ID_LIKE=debian
`

func TestGather(t *testing.T) {
	conn := connectortest.New().
		On("uname -a", 0, "Linux web1 5.15.0-91-generic #101-Ubuntu SMP x86_64 GNU/Linux\n").
		On("hostname", 0, "web1\n").
		On("uname -r", 0, "5.15.0-91-generic\n").
		On("uname -m", 0, "aarch64\n").
		On("cat /etc/os-release 2>/dev/null", 0, ubuntuRelease)

	f := Gather(context.Background(), conn)

	assert.Equal(t, Facts{
		OS:           probe.Ubuntu,
		Hostname:     "web1",
		Kernel:       "5.15.0-91-generic",
		Architecture: "aarch64",
		Arch:         "arm64",
		Distribution: "ubuntu",
		Version:      "22.04",
		PrettyName:   "Ubuntu 22.04.4 LTS",
	}, f)
}

func TestGather_Partial(t *testing.T) {
	conn := connectortest.New().
		On("hostname", 0, "box\n").
		On("cat /etc/os-release 2>/dev/null", 1, "").
		Fail("uname -a")

	f := Gather(context.Background(), conn)

	assert.Equal(t, probe.Unsupported, f.OS)
	assert.Equal(t, "box", f.Hostname)
	assert.Empty(t, f.Kernel, "unknown command exits 127")
	assert.Empty(t, f.Distribution)
}

func TestNormalizeArch(t *testing.T) {
	tests := map[string]string{
		"x86_64":  "amd64",
		"amd64":   "amd64",
		"aarch64": "arm64",
		"armv7l":  "arm",
		"riscv64": "riscv64",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeArch(in), in)
	}
}

func TestParseOSRelease(t *testing.T) {
	got := parseOSRelease(ubuntuRelease)
	assert.Equal(t, "ubuntu", got["ID"])
	assert.Equal(t, "Ubuntu 22.04.4 LTS", got["PRETTY_NAME"])
	assert.Equal(t, "debian", got["ID_LIKE"])
	_, hasComment := got["# comment"]
	assert.False(t, hasComment)
}
