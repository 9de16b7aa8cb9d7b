// Package langmeta resolves display names for language codes used in
// CLI output and skip notices.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// canonicalize normalizes the code shapes Transifex and resource files
// use: underscores as region separators (pt_BR) and @-suffixed script
// variants (ug@Latn).
func canonicalize(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '@'); i >= 0 {
		code = code[:i]
	}
	return strings.ReplaceAll(code, "_", "-")
}

// Name returns the native display name for a language code, falling
// back to the code itself when it cannot be parsed.
func Name(code string) string {
	tag, err := language.Parse(canonicalize(code))
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// EnglishName returns the English display name for a language code.
func EnglishName(code string) string {
	tag, err := language.Parse(canonicalize(code))
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
