// Package pathutil expands home-directory markers in local file paths.
package pathutil

import (
	"strings"

	"github.com/mitchellh/go-homedir"
)

// HomeResolver yields the current user's home directory, if known.
type HomeResolver func() (string, bool)

// ExpandTilde replaces a leading "~" with the directory returned by home.
//
// Only "~" and "~/..." are expanded. Paths such as "~bob/.ssh/id_rsa" are
// returned unchanged, as are all paths when home yields nothing.
func ExpandTilde(input string, home HomeResolver) string {
	if !strings.HasPrefix(input, "~") {
		return input
	}

	rest := input[1:]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		// ~otheruser is not supported
		return input
	}

	dir, ok := home()
	if !ok {
		return input
	}
	return dir + rest
}

// HomeDir looks up the home directory of the user running the process.
func HomeDir() (string, bool) {
	dir, err := homedir.Dir()
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}
