package utils

import "github.com/rivo/uniseg"

// Truncate shortens s to at most maxLen grapheme clusters, appending "..."
// when anything was cut.
func Truncate(s string, maxLen int) string {
	if uniseg.GraphemeClusterCount(s) <= maxLen {
		return s
	}

	var out []byte
	g := uniseg.NewGraphemes(s)
	for i := 0; i < maxLen && g.Next(); i++ {
		out = append(out, g.Bytes()...)
	}
	return string(out) + "..."
}
