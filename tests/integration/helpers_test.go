//go:build integration

package integration

import (
	"bytes"
	"context"
	"testing"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// execInContainer runs a command in the container and returns stdout
func execInContainer(ctx context.Context, container testcontainers.Container, cmd []string) (int, string, error) {
	exitCode, reader, err := container.Exec(ctx, cmd)
	if err != nil {
		return exitCode, "", err
	}

	// Demux the Docker stream (stdout/stderr are multiplexed)
	var stdout, stderr bytes.Buffer
	_, _ = stdcopy.StdCopy(&stdout, &stderr, reader)

	return exitCode, stdout.String(), nil
}

// assertCommandOutput runs a command and checks its stdout contains expected strings
func assertCommandOutput(t *testing.T, ctx context.Context, container testcontainers.Container, cmd []string, expectedStdout []string) {
	t.Helper()
	exitCode, output, err := execInContainer(ctx, container, cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode, "command %v should succeed", cmd)

	for _, expected := range expectedStdout {
		assert.Contains(t, output, expected, "command output should contain %q", expected)
	}
}
