package seedrand

import "unicode/utf16"

// Hash folds s into a signed 32-bit seed using h = h*31 + c over the
// UTF-16 code units of s. Arithmetic wraps at every step so results are
// identical on every platform.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}
