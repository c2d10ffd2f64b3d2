package api

import "time"

// ParseTime reads a payload timestamp or any other RFC 3339 value.
// Empty or malformed input yields the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
