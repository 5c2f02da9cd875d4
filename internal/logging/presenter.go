// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// EnvVerbose enables debug output when set to "1".
const EnvVerbose = "ASSETTRACK_VERBOSE"

var debug = pterm.Debug.WithDebugger(false)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// SetVerbose turns debug output on for this process and its children.
func SetVerbose(on bool) {
	if on {
		_ = os.Setenv(EnvVerbose, "1")
		return
	}
	_ = os.Unsetenv(EnvVerbose)
}

// Verbose reports whether debug output is enabled.
func Verbose() bool { return os.Getenv(EnvVerbose) == "1" }

// Debugf prints a masked debug line to stderr when verbose.
func Debugf(format string, args ...any) {
	if !Verbose() {
		return
	}
	fmt.Fprintln(os.Stderr, debug.Sprint(Mask(fmt.Sprintf(format, args...))))
}
