// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides utilities for terminal operations such as clearing
// a prompt after the user typed a secret into it.
package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// Width returns the stdout terminal width, or 80 when it is unknown.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}

// IsInteractive reports whether stdin is a terminal a person can answer
// prompts on.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ClearPreviousLines clears textLength characters of previously printed
// prompt and input, plus the empty line left by Enter.
func ClearPreviousLines(textLength int) {
	linesToClear := linesFor(textLength, Width()) + 1

	for i := 0; i < linesToClear; i++ {
		fmt.Print("\r\x1b[2K") // Move to start and clear entire line
		if i < linesToClear-1 {
			fmt.Print("\x1b[1A") // Move up one line (don't move up on last iteration)
		}
	}
}

// linesFor returns how many terminal rows textLength characters wrap to.
func linesFor(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		return 1
	}
	return lines
}
