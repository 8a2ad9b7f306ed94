// Package ttyguard keeps terminal capability probes out of scripted output.
// Import it for side effects before any package that touches lipgloss.
package ttyguard

import (
	"os"
	"strings"
)

// init runs before Bubble Tea or lipgloss query the terminal. Termenv
// background detection writes OSC/DSR sequences to stdout, which corrupts
// --robot-* JSON when stdout is a captured PTY. Setting CI=1 disables the
// probe.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args, os.Getenv("RRG_ROBOT") == "1") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, envRobot bool) bool {
	if envRobot {
		return true
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, "--robot-") || strings.HasPrefix(arg, "--export-") {
			return true
		}
		switch arg {
		case "--version", "--help", "-h":
			return true
		}
	}
	return false
}
