package shader

import (
	"strings"
	"unicode/utf16"
)

// InjectKeywords returns source with one "#define NAME" line per keyword.
// The defines are placed immediately after the first line when the
// source starts with a "#version" pragma, otherwise at the very top.
func InjectKeywords(source string, keywords []string) string {
	if len(keywords) == 0 {
		return source
	}

	var defines strings.Builder
	for _, k := range keywords {
		defines.WriteString("#define ")
		defines.WriteString(k)
		defines.WriteByte('\n')
	}

	if strings.HasPrefix(source, "#version") {
		end := strings.IndexByte(source, '\n')
		if end < 0 {
			return source + "\n" + defines.String()
		}
		return source[:end+1] + defines.String() + source[end+1:]
	}
	return defines.String() + source
}

// HashCode returns the 32-bit string hash h = 31*h + c over UTF-16 code
// units, with two's complement wrap-around.
func HashCode(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// HashKeywords returns the sum of the keyword hash codes.
//
// The sum is independent of keyword order, so reordered sets share a
// variant. Distinct sets can collide; callers accept that risk.
func HashKeywords(keywords []string) int64 {
	var sum int64
	for _, k := range keywords {
		sum += int64(HashCode(k))
	}
	return sum
}
