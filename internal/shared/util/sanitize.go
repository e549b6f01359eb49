package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxDisplayNameRunes = 255

// DisplayFileName reduces a client supplied file name to its base name,
// stripped of control characters and capped in length, so it can be logged
// safely.
func DisplayFileName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if runes := []rune(s); len(runes) > maxDisplayNameRunes {
		s = string(runes[:maxDisplayNameRunes])
	}
	return s
}

// TruncateError flattens an error message to one line of bounded length.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
