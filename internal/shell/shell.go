// Package shell runs commands through a connector in one of two modes:
// Run fails the caller on a non-zero exit code, Silent never does.
package shell

import (
	"context"
	"fmt"

	"github.com/projectdiscovery/gologger"

	"github.com/eugenetaranov/hatch/internal/connector"
)

// CommandError is returned by Run when a command exits non-zero.
// Its message is the command's output.
type CommandError struct {
	Cmd    string
	Result connector.Result
}

func (e *CommandError) Error() string {
	return e.Result.Output
}

// Run executes cmd and fails on any exit code other than 0.
func Run(ctx context.Context, conn connector.Connector, cmd string) (connector.Result, error) {
	res, err := conn.Execute(ctx, cmd)
	if err != nil {
		gologger.Warning().Str("cmd", cmd).Msgf("%s: %v", cmd, err)
		return connector.Result{}, err
	}

	if !res.Success() {
		gologger.Warning().Str("cmd", cmd).Msgf("%s %s", cmd, describe(res))
		return res, &CommandError{Cmd: cmd, Result: res}
	}

	gologger.Debug().Str("cmd", cmd).Msgf("%s %s", cmd, describe(res))
	return res, nil
}

// Silent executes cmd and returns its result whatever the exit code.
// Only transport failures are returned as errors.
func Silent(ctx context.Context, conn connector.Connector, cmd string) (connector.Result, error) {
	res, err := conn.Execute(ctx, cmd)
	if err != nil {
		gologger.Debug().Str("cmd", cmd).Msgf("%s: %v", cmd, err)
		return connector.Result{}, err
	}

	gologger.Debug().Str("cmd", cmd).Msgf("%s %s", cmd, describe(res))
	return res, nil
}

func describe(res connector.Result) string {
	return fmt.Sprintf("{exit_status: %d, output: %q}", res.ExitCode, res.Output)
}
