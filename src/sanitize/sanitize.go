// Package sanitize cleans Azure Pipelines log text for MCP tool responses.
// It removes terminal escape codes and per-line timestamps, and trims logs to
// a size an LLM client can take.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// timestampPattern matches the timestamp Azure Pipelines writes at the start of
// every log line, e.g. 2024-05-21T10:00:05.1234567Z.
var timestampPattern = regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*Z?([+-]\d{2}:?\d{2})?[ \t]?`)

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// StripTimestamps removes the leading timestamp from every line.
func StripTimestamps(s string) string {
	return timestampPattern.ReplaceAllString(s, "")
}

// Truncate keeps at most maxBytes of the end of s, cut on a line boundary where
// possible. Failures sit at the end of a job log, so the head is dropped.
// maxBytes <= 0 disables truncation.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}

	tail := s[len(s)-maxBytes:]
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	} else {
		for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
			tail = tail[1:]
		}
	}

	return fmt.Sprintf("... [truncated %d bytes]\n%s", len(s)-len(tail), tail)
}

// Clean strips escape codes and timestamps, normalises line endings and
// truncates to maxBytes.
func Clean(s string, maxBytes int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = StripANSI(s)
	s = StripTimestamps(s)
	return Truncate(s, maxBytes)
}
