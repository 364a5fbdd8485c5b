package pipeline

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies fatal bus errors for diagnostics
type ErrorCategory int

const (
	// ErrCategoryConnection indicates stream/network failures (connect, timeout, DNS)
	ErrCategoryConnection ErrorCategory = iota
	// ErrCategoryDecode indicates codec/format failures (decode errors, caps negotiation)
	ErrCategoryDecode
	// ErrCategoryAuth indicates authentication/authorization failures
	ErrCategoryAuth
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryDecode:
		return "decode"
	case ErrCategoryAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Classify analyzes a GStreamer error and categorizes it.
//
// The category tells an operator where to look first: the stream
// connection, the media format, or the credentials. Classification is
// heuristic, based on message keywords; go-gst's GError does not expose
// the error domain.
func Classify(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return classify(strings.ToLower(gerr.Error()), strings.ToLower(gerr.DebugString()))
}

// classify matches already-lowercased message and debug strings.
// Priority: auth (most specific), then decode, then connection.
func classify(errMsg, debugStr string) ErrorCategory {
	if containsAuthKeywords(errMsg, debugStr) {
		return ErrCategoryAuth
	}
	if containsDecodeKeywords(errMsg, debugStr) {
		return ErrCategoryDecode
	}
	if containsConnectionKeywords(errMsg, debugStr) {
		return ErrCategoryConnection
	}
	return ErrCategoryUnknown
}

// containsAuthKeywords checks for authentication-related keywords
func containsAuthKeywords(errMsg, debugStr string) bool {
	keywords := []string{
		"unauthorized",
		"401",
		"403",
		"forbidden",
		"authentication",
		"credentials",
		"access denied",
		"signature",
		"token",
	}

	combined := errMsg + " " + debugStr
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// containsDecodeKeywords checks for codec-related keywords
func containsDecodeKeywords(errMsg, debugStr string) bool {
	keywords := []string{
		"codec",
		"decode",
		"encode",
		"format",
		"negotiation",
		"caps",
		"h264",
		"not-negotiated",
		"no decoder",
		"missing plugin",
		"parse",
	}

	combined := errMsg + " " + debugStr
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// containsConnectionKeywords checks for stream/network-related keywords
func containsConnectionKeywords(errMsg, debugStr string) bool {
	keywords := []string{
		"connection",
		"timeout",
		"unreachable",
		"network",
		"dns",
		"resolve",
		"socket",
		"tcp",
		"kinesis",
		"endpoint",
		"not found",
		"could not connect",
		"failed to connect",
		"service",
	}

	combined := errMsg + " " + debugStr
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
