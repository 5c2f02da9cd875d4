// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the assettrack CLI.
package main

import (
	"assettrack/cli/cmd"
)

func main() {
	cmd.Execute()
}
