package mcp

import (
	"fmt"
	"regexp"
	"strings"
)

// unixPathPattern matches absolute paths with 3+ directories, such as agent
// work directories (/home/vsts/work/1/s/...). The leading group keeps URLs
// intact by requiring start of line, whitespace or a quote before the slash.
// Captures the filename (and optional line number) at the end.
var unixPathPattern = regexp.MustCompile(`(^|[\s'"=(])/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

// windowsPathPattern matches drive paths with 3+ directories (D:\a\1\s\...).
var windowsPathPattern = regexp.MustCompile(`\b[A-Za-z]:\\(?:[^\\\s]+\\){3,}([^\\\s]+)`)

// compressPath shortens long file paths to .../filename.
func compressPath(line string) string {
	line = unixPathPattern.ReplaceAllString(line, "$1.../$2")
	return windowsPathPattern.ReplaceAllString(line, `...\$1`)
}

// collapseRepeats folds runs of identical lines into one annotated line.
func collapseRepeats(lines []string) []string {
	result := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}

		if n := j - i; n > 1 && strings.TrimSpace(lines[i]) != "" {
			result = append(result, fmt.Sprintf("%s (repeated %d times)", lines[i], n))
		} else {
			result = append(result, lines[i:j]...)
		}
		i = j
	}

	return result
}

// compactLog shortens paths and folds repeated lines. Trailing whitespace is
// dropped from every line.
func compactLog(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = compressPath(strings.TrimRight(line, " \t"))
	}
	return strings.Join(collapseRepeats(lines), "\n")
}
