package main

import "testing"

// --help is a successful invocation, not a usage error, on every
// subcommand including those that parse flags after a positional arg.
func TestHelpExitsZero(t *testing.T) {
	cases := []struct {
		name string
		run  func([]string) int
		args []string
	}{
		{"list", runList, []string{"--help"}},
		{"update", runUpdate, []string{"--help"}},
		{"watch", runWatch, []string{"--help"}},
		{"tui flag form", runTUI, []string{"--path", "x", "--help"}},
		{"config validate", runConfig, []string{"validate", "--help"}},
		{"config print", runConfig, []string{"print", "--help"}},
	}
	for _, tc := range cases {
		if code := tc.run(tc.args); code != 0 {
			t.Errorf("%s --help exited %d, want 0", tc.name, code)
		}
	}
}
