// Package change detects whether an excerpt differs from the one processed last.
package change

import "unicode/utf16"

// Fingerprint is a cheap rolling hash of an excerpt. It is only ever
// compared for equality.
type Fingerprint int32

// Of computes h = h*31 + c over the UTF-16 code units of s with 32-bit
// signed wraparound.
func Of(s string) Fingerprint {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return Fingerprint(h)
}

// HasChanged reports whether next differs from prev.
func HasChanged(prev, next Fingerprint) bool {
	return prev != next
}
