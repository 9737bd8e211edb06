// Package shared provides common utility functions used across multiple
// packages in the pkgsmith codebase.
package shared

import (
	"fmt"
	"strings"
)

// SplitNameVersion splits a "name@version" reference into its parts.
// A bare name returns an empty version.
func SplitNameVersion(ref string) (string, string) {
	name, version, found := strings.Cut(strings.TrimSpace(ref), "@")
	if !found {
		return name, ""
	}
	return name, strings.TrimSpace(version)
}

// JoinNameVersion renders a (name, version) pair as name@version, or the
// bare name when version is empty.
func JoinNameVersion(name string, version string) string {
	if strings.TrimSpace(version) == "" {
		return name
	}
	return fmt.Sprintf("%s@%s", name, version)
}

// OutputTailBytes bounds captured process output carried in errors and
// reports.
const OutputTailBytes = 4096

// OutputTail returns at most the last OutputTailBytes of output, trimmed.
func OutputTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) <= OutputTailBytes {
		return text
	}
	return text[len(text)-OutputTailBytes:]
}

// CommandError wraps a command execution error with its trimmed output
// tail for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", OutputTail(output), err)
}
