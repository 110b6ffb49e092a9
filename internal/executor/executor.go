// Package executor runs a check plan against one connected host.
package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/eugenetaranov/hatch/internal/config"
	"github.com/eugenetaranov/hatch/internal/connector"
	"github.com/eugenetaranov/hatch/internal/output"
	"github.com/eugenetaranov/hatch/internal/probe"
	"github.com/eugenetaranov/hatch/internal/shell"
	"github.com/eugenetaranov/hatch/internal/status"
)

// Executor runs check plans.
type Executor struct {
	// Output handles formatted output.
	Output *output.Output
}

// New creates a new executor writing to stdout.
func New() *Executor {
	return &Executor{
		Output: output.New(os.Stdout),
	}
}

// Report is the outcome of one check.
type Report struct {
	Alias  string
	Status status.Status
}

// RunResult holds the result of a check run.
type RunResult struct {
	// Success is true if every check is Installed.
	Success bool

	// OS is the detected OS family of the target.
	OS probe.Os

	// Reports holds one entry per check, in plan order.
	Reports []Report

	// Stats holds execution statistics.
	Stats *Stats
}

// Stats holds execution statistics.
type Stats struct {
	Installed    int
	NotInstalled int
	StartTime    time.Time
	EndTime      time.Time
}

// Duration returns the total execution time.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// GetInstalled returns the Installed count (implements output.Stats).
func (s *Stats) GetInstalled() int { return s.Installed }

// GetNotInstalled returns the NotInstalled count (implements output.Stats).
func (s *Stats) GetNotInstalled() int { return s.NotInstalled }

// GetDuration returns the duration (implements output.Stats).
func (s *Stats) GetDuration() time.Duration { return s.Duration() }

// Run detects the target OS, then runs every check in order, printing one
// status line per alias and a recap. Checks never abort the run; only a
// cancelled context does.
func (e *Executor) Run(ctx context.Context, conn connector.Connector, checks []*config.Check) (*RunResult, error) {
	stats := &Stats{StartTime: time.Now()}
	result := &RunResult{
		Success: true,
		Stats:   stats,
	}

	result.OS = probe.OSInfo(ctx, conn)
	e.Output.HostStart(conn.String(), result.OS.String())
	if result.OS == probe.Unsupported {
		e.Output.Warn("%s is not Ubuntu or Debian, os-restricted steps are skipped", conn)
	}

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		st := e.runCheck(ctx, conn, check, result.OS)
		st.Print(e.Output, check.Alias)
		result.Reports = append(result.Reports, Report{Alias: check.Alias, Status: st})

		if st.Installed() {
			stats.Installed++
		} else {
			stats.NotInstalled++
			result.Success = false
		}
	}

	stats.EndTime = time.Now()
	e.Output.Recap(stats)

	return result, nil
}

// runCheck runs the steps of one check that apply to osFamily.
func (e *Executor) runCheck(ctx context.Context, conn connector.Connector, check *config.Check, osFamily probe.Os) status.Status {
	var success, fail []string

	for _, step := range check.Steps {
		label := step.Label()
		if !step.AppliesTo(osFamily.String()) {
			e.Output.Debug("%s: skipping %q on %s", check.Alias, label, osFamily)
			continue
		}

		if err := runStep(ctx, conn, step); err != nil {
			gologger.Debug().Str("alias", check.Alias).Msgf("%s failed: %v", label, err)
			fail = append(fail, label)
			continue
		}
		success = append(success, label)
	}

	return status.New(success, fail)
}

// runStep performs one step and returns an error when it did not succeed.
func runStep(ctx context.Context, conn connector.Connector, step *config.Step) error {
	kind, arg := step.Kind()

	switch kind {
	case config.StepWhich:
		_, err := probe.Which(ctx, conn, arg)
		return err

	case config.StepOutput:
		if !probe.SomeOutput(ctx, conn, arg) {
			return fmt.Errorf("no output from %q", arg)
		}
		return nil

	case config.StepFile:
		if !probe.FileExists(ctx, conn, arg) {
			return fmt.Errorf("%s does not exist", arg)
		}
		return nil

	case config.StepRun:
		_, err := shell.Run(ctx, conn, arg)
		return err

	default:
		return fmt.Errorf("step has no action")
	}
}
