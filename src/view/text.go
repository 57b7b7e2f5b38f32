package view

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// VisualWidth returns the display width of text, accounting for multi-byte characters
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate truncates text to maxLen columns (visual width), ending with "..."
// when something was cut and there is room for it.
func Truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}

	if VisualWidth(s) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return runewidth.Truncate(s, maxLen-3, "") + "..."
	}
	return runewidth.Truncate(s, maxLen, "")
}

// ShortBranch drops the refs/heads/ prefix for display.
func ShortBranch(branch string) string {
	return strings.TrimPrefix(branch, "refs/heads/")
}

// truncateLeft keeps the end of s, where file names are.
func truncateLeft(s string, maxLen int) string {
	if maxLen <= 3 || VisualWidth(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	width := 0
	i := len(runes)
	for i > 0 {
		w := runewidth.RuneWidth(runes[i-1])
		if width+w > maxLen-3 {
			break
		}
		width += w
		i--
	}
	return "..." + string(runes[i:])
}
