// Package status collapses per-step outcomes into an Installed or
// NotInstalled result and renders it.
package status

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the status variant.
type Kind int

const (
	Installed Kind = iota
	NotInstalled
)

func (k Kind) String() string {
	if k == Installed {
		return "Installed"
	}
	return "NotInstalled"
}

// Status is the outcome of one alias. Build it with New; it is not modified
// afterwards.
type Status struct {
	Kind    Kind
	Success []string
	Fail    []string
}

// New returns Installed when fail is empty and NotInstalled otherwise.
// Both lists are copied.
func New(success, fail []string) Status {
	s := Status{
		Kind:    Installed,
		Success: append([]string(nil), success...),
	}
	if len(fail) > 0 {
		s.Kind = NotInstalled
		s.Fail = append([]string(nil), fail...)
	}
	return s
}

// Installed reports whether no step failed.
func (s Status) Installed() bool {
	return s.Kind == Installed
}

// String renders the status with empty lists left out, e.g.
// `NotInstalled { success: ["a"], fail: ["b"] }` or just `Installed`.
func (s Status) String() string {
	var fields []string
	if len(s.Success) > 0 {
		fields = append(fields, "success: "+renderList(s.Success))
	}
	if len(s.Fail) > 0 {
		fields = append(fields, "fail: "+renderList(s.Fail))
	}

	if len(fields) == 0 {
		return s.Kind.String()
	}
	return s.Kind.String() + " { " + strings.Join(fields, ", ") + " }"
}

func renderList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

type fieldsJSON struct {
	Success []string `json:"success,omitempty"`
	Fail    []string `json:"fail,omitempty"`
}

// MarshalJSON encodes the status as {"<Kind>": {"success": [...], "fail": [...]}}
// with empty lists omitted.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]fieldsJSON{
		s.Kind.String(): {Success: s.Success, Fail: s.Fail},
	})
}

// Printer renders one status line. output.Output implements it.
type Printer interface {
	StatusLine(alias, rendered string, installed bool)
}

// Print renders the status for alias through p.
func (s Status) Print(p Printer, alias string) {
	p.StatusLine(alias, s.String(), s.Installed())
}
