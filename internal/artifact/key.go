// Package artifact publishes run outputs to S3-compatible storage with
// a bounded retention window.
package artifact

import (
	"fmt"
	"strings"
	"time"
)

// RunPrefix builds the object key prefix for one run, a UTC timestamp
// joined with the sanitized run name.
func RunPrefix(now time.Time, runName string) string {
	timestamp := now.UTC().Format("2006-01-02T15-04-05Z")
	return Sanitize(fmt.Sprintf("%s_%s", timestamp, runName))
}

// Sanitize replaces characters that are not S3-safe.
// Allowed: alphanumeric, hyphen, underscore, period
func Sanitize(name string) string {
	var result strings.Builder
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' {
			result.WriteRune(c)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}
