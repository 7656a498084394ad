// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors explains transport failures to the user.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"foodshare/cli/internal/api"

	"github.com/pterm/pterm"
)

// Cause is the broad reason a call did not get a usable answer.
type Cause int

const (
	Generic Cause = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	Server
)

// Classify inspects err for the usual network failure modes.
func Classify(err error) Cause {
	switch {
	case err == nil:
		return Generic
	case api.StatusCode(err) >= 500:
		return Server
	case api.StatusCode(err) > 0:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isSSLError(err):
		return TLS
	default:
		return Generic
	}
}

// FormatNetworkError writes a user-friendly explanation of err to w and
// returns err wrapped for logging. action describes what was being done,
// e.g. "loading donations"; host names the backend.
func FormatNetworkError(w io.Writer, err error, action, host string) error {
	if err == nil {
		return nil
	}
	display(w, Classify(err), err, action, host)
	return fmt.Errorf("network error: %w", err)
}

func display(w io.Writer, c Cause, err error, action, host string) {
	p := func(format string, a ...any) { fmt.Fprintf(w, format+"\n", a...) }

	switch c {
	case Timeout:
		p("⏱️  Connection timeout while %s", action)
		p("")
		p("The server took too long to respond. This could mean:")
		p("  • Slow internet connection")
		p("  • Server is under heavy load")
		p("")
		p("Please try again in a few moments.")
	case DNS:
		p("🌐 Cannot resolve server address while %s", action)
		p("")
		p("Unable to look up %s. Please check:", host)
		p("  • Your internet connection is working")
		p("  • The api_url setting (see: foodshare config)")
	case ConnectionRefused:
		p("🚫 Connection refused while %s", action)
		p("")
		p("Nothing is accepting connections at %s. This could mean:", host)
		p("  • The Foodshare backend is not running")
		p("  • Wrong server address or port in api_url")
	case TLS:
		p("🔒 Secure connection failed while %s", action)
		p("")
		p("Cannot establish a secure HTTPS connection. Try:")
		p("  • Check your system date and time")
		p("  • Verify network proxy settings")
	case Server:
		p("⚠️  Server error while %s", action)
		p("")
		p("The Foodshare backend encountered an internal error (%d).", api.StatusCode(err))
		if msg := api.ServerMessage(err, ""); msg != "" {
			p("  %s", msg)
		}
		p("Please try again in a few minutes.")
	default:
		if msg := api.ServerMessage(err, ""); msg != "" {
			p("%s %s", pterm.Error.Sprint("Failed while "+action+":"), msg)
			return
		}
		p("❌ Cannot reach Foodshare at %s while %s", host, action)
		p("")
		p("Please check:")
		p("  • Your internet connection")
		p("  • Whether %s is accessible from your network", host)
		shortErr := err.Error()
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
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

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
