package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Accessor prefixes stripped from method identifiers
const (
	prefixIs  = "Is"
	prefixGet = "Get"
	prefixSet = "Set"
)

// LowerFirst lower-cases the first rune of an identifier
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// GetterName derives a property name from a getter method identifier.
// "Is" and "Get" are stripped only when an upper-case rune follows them, so
// IsEnabled gives enabled while Issues gives issues.
func GetterName(identifier string) string {
	for _, prefix := range []string{prefixIs, prefixGet} {
		if rest, ok := stripPrefix(identifier, prefix); ok {
			return LowerFirst(rest)
		}
	}
	return LowerFirst(identifier)
}

// SetterName derives a property name from a setter method identifier
func SetterName(identifier string) string {
	if rest, ok := stripPrefix(identifier, prefixSet); ok {
		return LowerFirst(rest)
	}
	return LowerFirst(identifier)
}

func stripPrefix(identifier, prefix string) (string, bool) {
	if !strings.HasPrefix(identifier, prefix) || len(identifier) == len(prefix) {
		return "", false
	}
	rest := identifier[len(prefix):]
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return rest, true
}
