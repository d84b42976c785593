package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// NormalizeTriggerWord prepares a trigger word for use as an archive entry
// prefix. The word is NFC-normalized and keeps its case; runs of whitespace,
// path separators, and other unsafe characters collapse to a single
// underscore. An all-unsafe input yields the empty string (no trigger word).
func NormalizeTriggerWord(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

var titleCaser = cases.Title(language.English)

// Title converts an identifier such as "awaiting_selection" to "Awaiting Selection".
func Title(identifier string) string {
	words := strings.FieldsFunc(identifier, func(r rune) bool { return r == '_' || r == '-' || unicode.IsSpace(r) })
	return titleCaser.String(strings.Join(words, " "))
}
