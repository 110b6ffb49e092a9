// Package main is the entrypoint for the hatch CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/spf13/cobra"

	"github.com/eugenetaranov/hatch/internal/config"
	"github.com/eugenetaranov/hatch/internal/connector"
	"github.com/eugenetaranov/hatch/internal/connector/local"
	"github.com/eugenetaranov/hatch/internal/connector/ssh"
	"github.com/eugenetaranov/hatch/internal/executor"
	"github.com/eugenetaranov/hatch/internal/shell"
	"github.com/eugenetaranov/hatch/pkg/facts"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errNotInstalled fails `hatch check` when any alias is NotInstalled.
var errNotInstalled = errors.New("one or more aliases are not installed")

// Global flags
var (
	debug      bool
	noColor    bool
	useLocal   bool
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hatch",
	Short: "Hatch - check what is installed on a remote host",
	Long: `Hatch opens one SSH session to a remote Ubuntu or Debian host and runs
read-only checks against it, reporting Installed or NotInstalled per alias.

Connection settings come from the config file, then flags, then
HATCH_REMOTE_* environment variables (a .env file is loaded when present).`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return loadDotenv(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&useLocal, "local", false, "Run against the local machine instead of SSH")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file with ssh settings")
	registerSSHFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(osCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(validateCmd)
}

func setupLogging() {
	gologger.DefaultLogger.SetFormatter(formatter.NewCLI(!colorEnabled()))
	if debug {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	} else {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelWarning)
	}
}

func colorEnabled() bool {
	return !noColor && isatty.IsTerminal(os.Stdout.Fd())
}

// loadDotenv loads path into the environment, ignoring a missing file.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// checkCmd runs a check plan
var checkCmd = &cobra.Command{
	Use:   "check [config.yaml]",
	Short: "Run the check plan of a config file",
	Long: `Connect to the target and run every check of the config file.

Examples:
  hatch check hatch.yaml
  hatch check hatch.yaml --host 10.0.0.5 --user root --key-file ~/.ssh/id_ed25519
  hatch check --local hatch.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	conn, err := connect(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	exec := executor.New()
	exec.Output.SetColor(colorEnabled())
	exec.Output.SetDebug(debug)
	if len(cfg.Checks) == 0 {
		exec.Output.Warn("no checks to run")
	}

	result, err := exec.Run(ctx, conn, cfg.Checks)
	if err != nil {
		return err
	}

	if !result.Success {
		return errNotInstalled
	}

	return nil
}

// osCmd prints the facts of the target
var osCmd = &cobra.Command{
	Use:   "os",
	Short: "Print the detected OS and host facts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		conn, err := connect(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		f := facts.Gather(ctx, conn)
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(f)
		}

		fmt.Fprintln(cmd.OutOrStdout(), f.OS)
		if debug {
			fmt.Fprintf(cmd.OutOrStdout(), "hostname=%s kernel=%s arch=%s distribution=%s version=%s\n",
				f.Hostname, f.Kernel, f.Arch, f.Distribution, f.Version)
		}
		return nil
	},
}

func init() {
	osCmd.Flags().Bool("json", false, "Print all gathered facts as JSON")
}

// execCmd runs a single command strictly
var execCmd = &cobra.Command{
	Use:   "exec -- <command>",
	Short: "Run one command on the target and print its output",
	Long: `Run one command on the target. A non-zero exit status is an error.

Examples:
  hatch exec -- uname -a
  hatch exec --local -- 'ls -1 /etc'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		conn, err := connect(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		res, err := shell.Run(ctx, conn, strings.Join(args, " "))
		if err != nil {
			var cmdErr *shell.CommandError
			if errors.As(err, &cmdErr) {
				return fmt.Errorf("exit status %d: %s", cmdErr.Result.ExitCode, strings.TrimSpace(cmdErr.Result.Output))
			}
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), res.Output)
		return nil
	},
}

// validateCmd validates config files without connecting
var validateCmd = &cobra.Command{
	Use:   "validate <config.yaml> [config2.yaml ...]",
	Short: "Validate one or more config files",
	Long: `Parse and validate config files without connecting.

This checks for:
  - Valid YAML syntax and known keys
  - A port between 1 and 65535
  - Unique aliases with exactly one action per step

Examples:
  hatch validate hatch.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateConfigs,
}

func validateConfigs(cmd *cobra.Command, args []string) error {
	var hasErrors bool
	out := cmd.OutOrStdout()

	for _, path := range args {
		if _, err := config.ParseFile(path); err != nil {
			fmt.Fprintf(out, "FAIL: %s - %v\n", path, err)
			hasErrors = true
		} else {
			fmt.Fprintf(out, "OK: %s\n", path)
		}
	}

	if hasErrors {
		return fmt.Errorf("one or more config files failed validation")
	}

	fmt.Fprintf(out, "\nAll %d config file(s) valid.\n", len(args))
	return nil
}

// loadConfig parses path, or returns an empty config when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.ParseFile(path)
}

// connect opens the connector selected by the global flags.
func connect(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (connector.Connector, error) {
	if useLocal {
		conn := local.New()
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		return conn, nil
	}

	args, err := argsFromFlags(cmd.Flags(), os.LookupEnv)
	if err != nil {
		return nil, err
	}

	conn, err := ssh.Dial(ctx, args, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
