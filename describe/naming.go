package describe

import (
	"strings"
	"unicode"
)

// ScriptName converts a Go identifier to the lower-camel form used on the
// script side. Leading acronyms are lowered as a unit: URL -> url,
// HTTPServer -> httpServer, ID -> id.
func ScriptName(goName string) string {
	if goName == "" {
		return ""
	}

	runes := []rune(goName)
	if !unicode.IsUpper(runes[0]) {
		return goName
	}

	end := 1
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// Last uppercase before lowercase starts the next word, not part of the acronym
	if end > 1 && end < len(runes) && unicode.IsLower(runes[end]) {
		end--
	}

	var b strings.Builder
	for i, r := range runes {
		if i < end {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tagOptions splits a `bridge:"name,opt"` struct tag.
func tagOptions(tag string) (name string, readonly bool, skip bool) {
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, opt := range parts[1:] {
		if opt == "readonly" {
			readonly = true
		}
	}
	return name, readonly, false
}
