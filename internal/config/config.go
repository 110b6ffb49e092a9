// Package config defines the hatch configuration file, the invocation
// arguments that back it up, and the priority rule that merges the two.
package config

import (
	"fmt"
	"strings"
)

// Config is the content of a hatch configuration file.
type Config struct {
	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`

	// SSH holds connection settings. It may be omitted entirely.
	SSH *SSH `yaml:"ssh"`

	// Checks is the check plan run by `hatch check`.
	Checks []*Check `yaml:"checks"`
}

// SSH is the connection section of a configuration file.
// A nil field is unset; a non-nil field always wins over the matching argument.
type SSH struct {
	RemotePassword      *string `yaml:"remote_password"`
	RemoteKeyFile       *string `yaml:"remote_key_file"`
	RemoteKeyPassphrase *string `yaml:"remote_key_passphrase"`
	RemoteHost          *string `yaml:"remote_host"`
	RemotePort          *int    `yaml:"remote_port"`
	RemoteUser          *string `yaml:"remote_user"`
}

// Args holds connection settings supplied on the command line or through
// the environment. They have lower priority than the configuration file.
type Args struct {
	RemotePassword      *string
	RemoteKeyFile       *string
	RemoteKeyPassphrase *string
	RemoteHost          *string
	RemotePort          *int
	RemoteUser          *string
}

// Section returns the SSH section, or an empty one when the config or the
// section is missing. The result is never nil.
func (c *Config) Section() *SSH {
	if c == nil || c.SSH == nil {
		return &SSH{}
	}
	return c.SSH
}

// Resolve picks the configuration value if present, else the argument value,
// else def. A present-but-zero configuration value still wins.
func Resolve[T any](cfg, arg *T, def T) T {
	if cfg != nil {
		return *cfg
	}
	if arg != nil {
		return *arg
	}
	return def
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c.SSH != nil && c.SSH.RemotePort != nil {
		if port := *c.SSH.RemotePort; port < 1 || port > 65535 {
			return fmt.Errorf("ssh: invalid remote_port %d", port)
		}
	}

	seen := make(map[string]bool)
	for i, check := range c.Checks {
		if err := check.Validate(); err != nil {
			name := check.Alias
			if name == "" {
				name = fmt.Sprintf("check %d", i+1)
			}
			return fmt.Errorf("%s: %w", name, err)
		}
		if seen[check.Alias] {
			return fmt.Errorf("duplicate check alias %q", check.Alias)
		}
		seen[check.Alias] = true
	}

	return nil
}

// Check is one alias of the check plan with its ordered steps.
type Check struct {
	// Alias names the check in the report.
	Alias string `yaml:"alias"`

	// Steps run in order; each one is recorded as a success or a failure.
	Steps []*Step `yaml:"steps"`
}

// Validate checks the alias and its steps.
func (c *Check) Validate() error {
	if strings.TrimSpace(c.Alias) == "" {
		return fmt.Errorf("check is missing required 'alias' field")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("check has no steps")
	}
	for i, step := range c.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// StepKind identifies what a step does.
type StepKind string

const (
	StepWhich  StepKind = "which"  // command must exit 0
	StepOutput StepKind = "output" // command must exit 0 with output
	StepFile   StepKind = "file"   // path must exist
	StepRun    StepKind = "run"    // command must exit 0, output is logged
)

// Step is a single probe or command in a check.
type Step struct {
	// Name labels the step in the report. Defaults to the command or path.
	Name string `yaml:"name"`

	Which  string `yaml:"which"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
	Run    string `yaml:"run"`

	// OS restricts the step to the listed OS families (ubuntu, debian).
	OS []string `yaml:"os"`
}

// Kind returns the step kind and its argument. Kind is empty when the step
// sets no action.
func (s *Step) Kind() (StepKind, string) {
	switch {
	case s.Which != "":
		return StepWhich, s.Which
	case s.Output != "":
		return StepOutput, s.Output
	case s.File != "":
		return StepFile, s.File
	case s.Run != "":
		return StepRun, s.Run
	}
	return "", ""
}

// Validate checks that the step sets exactly one action.
func (s *Step) Validate() error {
	var set []string
	for kind, v := range map[StepKind]string{
		StepWhich:  s.Which,
		StepOutput: s.Output,
		StepFile:   s.File,
		StepRun:    s.Run,
	} {
		if v != "" {
			set = append(set, string(kind))
		}
	}

	switch len(set) {
	case 0:
		return fmt.Errorf("step has no action (which, output, file, or run)")
	case 1:
	default:
		return fmt.Errorf("step sets more than one action")
	}

	for _, name := range s.OS {
		switch strings.ToLower(name) {
		case "ubuntu", "debian":
		default:
			return fmt.Errorf("invalid os %q: must be ubuntu or debian", name)
		}
	}

	return nil
}

// Label returns the name shown for the step in the report.
func (s *Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	_, arg := s.Kind()
	return arg
}

// AppliesTo reports whether the step should run on the given OS family.
// Steps without an os list run everywhere.
func (s *Step) AppliesTo(osName string) bool {
	if len(s.OS) == 0 {
		return true
	}
	for _, name := range s.OS {
		if strings.EqualFold(name, osName) {
			return true
		}
	}
	return false
}
