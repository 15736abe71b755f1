// Package device derives privacy-preserving client identifiers from request
// metadata. Raw IP addresses never reach storage; only a salted hash does.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// HashIP returns a hex-encoded salted SHA-256 of the client IP. An empty IP
// yields an empty hash so absent metadata stays absent in stored records.
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// Describe extracts a human-readable device display name from a User-Agent
// string. Returns format: "Browser on OS" (e.g., "Chrome on macOS").
func Describe(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		platform := ua.Platform()
		if platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + os)
}
