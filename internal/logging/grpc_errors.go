// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// GRPCErrorType represents the category of gRPC error
type GRPCErrorType int

const (
	GRPCErrorUnknown GRPCErrorType = iota
	GRPCErrorNetwork
	GRPCErrorAuth
	GRPCErrorTimeout
	GRPCErrorInternal
	GRPCErrorUnavailable
)

// ParseGRPCError categorizes a gRPC error message
func ParseGRPCError(errMsg string) GRPCErrorType {
	lower := strings.ToLower(errMsg)

	if strings.Contains(lower, "rst_stream") || strings.Contains(lower, "connection reset") {
		return GRPCErrorNetwork
	}
	if strings.Contains(lower, "internal_error") || strings.Contains(lower, "code = internal") {
		return GRPCErrorInternal
	}
	if strings.Contains(lower, "unavailable") {
		return GRPCErrorUnavailable
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return GRPCErrorTimeout
	}
	if strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "permissiondenied") {
		return GRPCErrorAuth
	}

	return GRPCErrorUnknown
}

// FormatStreamError formats a failed call to a row store server. addr is
// the server address shown to the user.
func FormatStreamError(addr, errMsg string) string {
	errType := ParseGRPCError(errMsg)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Row store unreachable"))
	builder.WriteString("\n\n")

	switch errType {
	case GRPCErrorNetwork:
		builder.WriteString("The connection to " + addr + " was interrupted.\n")
		builder.WriteString("A proxy or firewall may have closed it.\n")

	case GRPCErrorInternal:
		builder.WriteString("The row store server at " + addr + " failed while handling the call.\n")
		builder.WriteString("Check the server log ('assettrack serve --verbose').\n")

	case GRPCErrorUnavailable:
		builder.WriteString("No row store server is answering at " + addr + ".\n")
		builder.WriteString("Start one with 'assettrack serve' or check the endpoint.\n")

	case GRPCErrorTimeout:
		builder.WriteString("The row store server at " + addr + " did not answer in time.\n")

	case GRPCErrorAuth:
		builder.WriteString("The row store server at " + addr + " refused the credentials.\n")

	default:
		builder.WriteString("The call to " + addr + " failed.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'assettrack list' to see which changes were applied before retrying"))
	builder.WriteString("\n")

	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}

// PresentStreamError displays a formatted row store server error
func PresentStreamError(addr, errMsg string) {
	fmt.Println()
	fmt.Println(FormatStreamError(addr, errMsg))
	fmt.Println()
}
