package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/eugenetaranov/hatch/internal/config"
)

// sshFlag binds one connection flag to its environment variable.
type sshFlag struct {
	name  string
	env   string
	usage string
}

var sshFlags = []sshFlag{
	{"host", "HATCH_REMOTE_HOST", "Remote host"},
	{"port", "HATCH_REMOTE_PORT", "Remote SSH port (default 22)"},
	{"user", "HATCH_REMOTE_USER", "Remote user"},
	{"password", "HATCH_REMOTE_PASSWORD", "Password; when empty a private key is used"},
	{"key-file", "HATCH_REMOTE_KEY_FILE", "Private key file, ~ is expanded"},
	{"passphrase", "HATCH_REMOTE_KEY_PASSPHRASE", "Private key passphrase"},
}

func registerSSHFlags(flags *pflag.FlagSet) {
	for _, f := range sshFlags {
		flags.String(f.name, "", fmt.Sprintf("%s [$%s]", f.usage, f.env))
	}
}

// argsFromFlags builds Args from the flags that were set, falling back to
// the environment. Anything set in neither place stays nil.
func argsFromFlags(flags *pflag.FlagSet, lookupEnv func(string) (string, bool)) (config.Args, error) {
	values := make(map[string]*string, len(sshFlags))
	for _, f := range sshFlags {
		if flags.Changed(f.name) {
			v, err := flags.GetString(f.name)
			if err != nil {
				return config.Args{}, err
			}
			values[f.name] = &v
			continue
		}
		if v, ok := lookupEnv(f.env); ok {
			values[f.name] = &v
		}
	}

	args := config.Args{
		RemoteHost:          values["host"],
		RemoteUser:          values["user"],
		RemotePassword:      values["password"],
		RemoteKeyFile:       values["key-file"],
		RemoteKeyPassphrase: values["passphrase"],
	}

	if p := values["port"]; p != nil {
		port, err := strconv.Atoi(*p)
		if err != nil {
			return config.Args{}, fmt.Errorf("invalid port %q: %w", *p, err)
		}
		args.RemotePort = &port
	}

	return args, nil
}
