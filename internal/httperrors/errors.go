// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures talking to a row store into
// messages people can act on.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Category is the broad cause of a network failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	Refused
	TLS
	Server
)

// Classify detects common error types: timeout, DNS, connection refused,
// TLS and upstream 5xx.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isSSLError(err):
		return TLS
	case isServerError(err.Error()):
		return Server
	}
	return Generic
}

// FormatNetworkError prints a troubleshooting message for err and returns it
// wrapped. context describes what was being done ("reading DATA"), host names
// the store.
func FormatNetworkError(err error, context, host string) error {
	if err == nil {
		return nil
	}
	displayErrorMessage(err, context, host)
	return fmt.Errorf("network error: %w", err)
}

func displayErrorMessage(err error, context, host string) {
	switch Classify(err) {
	case Timeout:
		showTimeoutError(context)
	case DNS:
		showDNSError(context, host)
	case Refused:
		showConnectionRefusedError(context)
	case TLS:
		showSSLError(context)
	case Server:
		showServerError(context, host)
	default:
		showGenericError(context, host, err.Error())
	}
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks for upstream failures reported by the store (5xx).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	for _, s := range []string{"status 500", "status 502", "status 503", "status 504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func showTimeoutError(context string) {
	pterm.Printf("⏱️  Timed out while %s\n", context)
	pterm.Println()
	pterm.Println("The row store took too long to respond. This could mean:")
	pterm.Println("  • Slow internet connection")
	pterm.Println("  • The script web app is cold-starting or over quota")
	pterm.Println()
	pterm.Println("Reads are retried automatically. Changes are never resent:")
	pterm.Println("run 'assettrack list' to see what was applied before trying again.")
	pterm.Println()
}

func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("Please check:")
	pterm.Println("  • Your internet connection is working")
	pterm.Println("  • The endpoint host is spelled correctly (assettrack storeinfo)")
	pterm.Println()
}

func showConnectionRefusedError(context string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Println("The store is not accepting connections. This could mean:")
	pterm.Println("  • The database or row store server is not running")
	pterm.Println("  • Wrong host or port in the endpoint")
	pterm.Println()
}

func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish a TLS connection. Try:")
	pterm.Println("  • Check your system date and time")
	pterm.Println("  • Verify network proxy settings")
	pterm.Println()
}

func showServerError(context, host string) {
	pterm.Printf("⚠️  %s reported an error while %s\n", host, context)
	pterm.Println()
	pterm.Println("The store failed before answering; the change may or may not have")
	pterm.Println("been applied. Run 'assettrack list' to check before trying again.")
	pterm.Println()
}

func showGenericError(context, host, errDetails string) {
	pterm.Printf("❌ Cannot reach %s while %s\n", host, context)
	pterm.Println()

	if errDetails != "" {
		shortErr := errDetails
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the row store"
	}
	return u.Host
}
