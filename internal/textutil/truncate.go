package textutil

import "unicode/utf8"

// Truncate returns at most maxRunes runes of s, never splitting a UTF-8
// sequence. Invalid bytes count as one rune each.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	for i, n := 0, 0; i < len(s); n++ {
		if n == maxRunes {
			return s[:i]
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s
}
