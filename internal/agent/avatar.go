package agent

import (
	"strings"
	"unicode/utf16"
)

// Palette is the fixed set of avatar colours.
var Palette = []string{"red", "blue", "green", "purple", "orange", "pink", "yellow", "indigo"}

// Initials takes the first letter of each space separated word, upper-cased,
// and keeps at most two.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for word := range strings.SplitSeq(name, " ") {
		if word == "" {
			continue
		}
		r := []rune(word)[0]
		b.WriteString(strings.ToUpper(string(r)))
		if n++; n == 2 {
			break
		}
	}
	return b.String()
}

// AvatarColor picks a palette colour from the name alone, so the same name
// always gets the same colour. The hash runs over UTF-16 code units with
// 32-bit shifts.
func AvatarColor(name string) string {
	var h int64
	for _, c := range utf16.Encode([]rune(name)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	if h < 0 {
		h = -h
	}
	return Palette[h%int64(len(Palette))]
}
