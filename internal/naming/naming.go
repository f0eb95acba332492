// Package naming converts snake_case schema identifiers into the casing
// conventions of generated code.
package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ToCamelCase removes each underscore that precedes a lowercase ASCII letter
// and uppercases that letter: "order_items" becomes "orderItems". Other
// characters, including the first segment and underscores before digits or
// capitals, are kept as they are.
func ToCamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && i+1 < len(s) && isLowerASCII(s[i+1]) {
			b.WriteString(toUpper(s[i+1 : i+2]))
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ToPascalCase is ToCamelCase with a leading lowercase ASCII letter raised.
func ToPascalCase(s string) string {
	c := ToCamelCase(s)
	if c == "" || !isLowerASCII(c[0]) {
		return c
	}
	return toUpper(c[:1]) + c[1:]
}

// toUpper builds its own Caser; a Caser keeps state and is not safe for
// concurrent use.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func isLowerASCII(b byte) bool {
	return b >= 'a' && b <= 'z'
}
