package executor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/hatch/internal/config"
	"github.com/eugenetaranov/hatch/internal/connector/ssh"
	"github.com/eugenetaranov/hatch/internal/sshtest"
)

func TestRun_OverSSH(t *testing.T) {
	srv := sshtest.NewServer(t, sshtest.Script(map[string]sshtest.Response{
		"uname -a":            {Output: "Linux deb 6.1.0-18-amd64 #1 SMP Debian 6.1.76-1 x86_64 GNU/Linux\n"},
		"which curl":          {Output: "/usr/bin/curl\n"},
		"ls -1 /etc/apt":      {Output: "sources.list\n"},
		"curl --version":      {Output: "curl 7.88.1\n"},
		"systemctl is-active": {ExitCode: 3, Output: "inactive\n"},
	}), sshtest.WithPassword("root", "pw"))

	plan, err := config.Parse([]byte(`
checks:
  - alias: curl
    steps:
      - which: which curl
      - output: curl --version
      - file: /etc/apt
        os: [debian]
  - alias: docker
    steps:
      - which: which docker
        os: [ubuntu]
      - run: systemctl is-active
`))
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := ssh.Dial(ctx, config.Args{
		RemoteHost:     config.Ptr(srv.Host),
		RemotePort:     config.Ptr(srv.Port),
		RemoteUser:     config.Ptr("root"),
		RemotePassword: config.Ptr("pw"),
	}, nil)
	require.NoError(t, err)
	defer conn.Close()

	var buf bytes.Buffer
	result, err := newTestExecutor(&buf).Run(ctx, conn, plan.Checks)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Stats.Installed)
	assert.Equal(t, 1, result.Stats.NotInstalled)

	out := buf.String()
	assert.Contains(t, out, "(debian)")
	assert.Contains(t, out, `+ curl: Installed { success: ["which curl", "curl --version", "/etc/apt"] }`)
	assert.Contains(t, out, `+ docker: NotInstalled { fail: ["systemctl is-active"] }`)

	assert.Equal(t, []string{
		"uname -a",
		"which curl",
		"curl --version",
		"ls -1 /etc/apt",
		"systemctl is-active",
	}, srv.Commands())
}
