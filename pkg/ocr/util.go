package ocr

import (
	"strings"
	"unicode/utf8"
)

// snippet shortens s to at most max bytes for logging, cutting on a rune
// boundary.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

// onlyDigits extracts ASCII decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// detectionTexts lists the text of each detection, whitespace collapsed.
func detectionTexts(dets []Detection) []string {
	out := make([]string, 0, len(dets))
	for _, d := range dets {
		out = append(out, strings.Join(strings.Fields(d.Text), " "))
	}
	return out
}
