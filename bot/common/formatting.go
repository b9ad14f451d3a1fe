package common

import (
	"fmt"
	"strings"
)

// MaxMessageLength is Discord's content limit for a single message
const MaxMessageLength = 2000

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorWarning = 0xFEE75C // Yellow
)

// FormatToggle renders a boolean setting for status output
func FormatToggle(enabled bool) string {
	if enabled {
		return "✅ on"
	}
	return "❌ off"
}

// FormatNumberedList renders items as a 1-based list, truncated to fit one message
func FormatNumberedList(items []string) string {
	if len(items) == 0 {
		return "*(empty)*"
	}

	var b strings.Builder
	for i, item := range items {
		line := fmt.Sprintf("%d. %s\n", i+1, item)
		if b.Len()+len(line) > MaxMessageLength-32 {
			fmt.Fprintf(&b, "…and %d more", len(items)-i)
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBulletList renders items as a bulleted list
func FormatBulletList(items []string) string {
	if len(items) == 0 {
		return "*(empty)*"
	}
	return "• " + strings.Join(items, "\n• ")
}
