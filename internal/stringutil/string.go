// Package stringutil provides string utility functions.
package stringutil

import "encoding/json"

// EscapeHeaderValue escapes control characters, quotes and backslashes in an identity
// value taken from a token so it can be returned in a response header verbatim.
func EscapeHeaderValue(value string) string {
	escaped, _ := json.Marshal(value)
	// Remove the surrounding quotes that json.Marshal adds
	return string(escaped[1 : len(escaped)-1])
}
