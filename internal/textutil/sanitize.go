package textutil

import (
	"path/filepath"
	"strings"
)

// SanitizeFileName makes name safe as a single path component. Separators,
// colons and asterisks become dashes; quotes, angle brackets, pipes and
// question marks are dropped.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if r < ' ' {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}

// Stem returns the sanitized display name without its last extension, or
// fallback when nothing usable is left. Dot-files keep their full name.
func Stem(name, fallback string) string {
	name = strings.TrimSpace(name)
	if ext := filepath.Ext(name); ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if stem := strings.TrimRight(SanitizeFileName(name), ". "); stem != "" {
		return stem
	}
	return fallback
}
