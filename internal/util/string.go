// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"time"
)

// TruncateString truncates s to maxLen runes, appending "..." when content
// was removed. Rune-based so multibyte text never gets split mid-character.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PadRight pads s with spaces to at least width runes.
func PadRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}

// CollapseWhitespace replaces newlines and carriage returns with single
// spaces, for one-line previews of multi-line content.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// RelativeDate formats t against now for conversation listings:
// "Today 3:04 PM", "Yesterday 3:04 PM", or "Jan 2, 2006" for older dates.
func RelativeDate(t, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()

	if ty == ny && tm == nm && td == nd {
		return "Today " + t.Format("3:04 PM")
	}

	yesterday := now.AddDate(0, 0, -1)
	yy, ym, yd := yesterday.Date()
	if ty == yy && tm == ym && td == yd {
		return "Yesterday " + t.Format("3:04 PM")
	}

	return t.Format("Jan 2, 2006")
}
