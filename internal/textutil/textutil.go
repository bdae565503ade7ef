// Package textutil provides Vietnamese text normalization utilities shared by
// the schedule parser and the QA router: whitespace collapsing, platform-name
// canonicalization, and location title-casing.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// PlatformPattern matches known online meeting platform spellings. Longer
// variants come first: regexp alternation is leftmost-first, so "Google Meet"
// before "Google Meeting" would leave a stray "ing" behind.
var PlatformPattern = regexp.MustCompile(`(?i)(MS\s*Teams?|Zoom|Google\s*Meeting|Google\s*Meet)`)

// platformNames maps normalized platform keys (lowercase, no spaces) to
// canonical display names.
var platformNames = map[string]string{
	"msteams":       "MS Teams",
	"msteam":        "MS Teams",
	"zoom":          "Zoom",
	"googlemeet":    "Google Meet",
	"googlemeeting": "Google Meet",
}

// allCapsWords are abbreviations kept fully uppercase during title-casing.
var allCapsWords = map[string]struct{}{
	"bgh":  {},
	"cthđ": {},
	"hđ":   {},
	"đ/c":  {},
}

var spaceRE = regexp.MustCompile(`\s+`)

// Norm collapses runs of whitespace into single spaces and trims the result.
func Norm(s string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// NFC applies Unicode NFC normalization. Vietnamese text copied out of office
// documents often arrives in decomposed form; storing composed text keeps the
// regex passes and substring matching predictable.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// platformKey normalizes a platform spelling for table lookup.
func platformKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(Norm(s)), " ", "")
}

// CanonicalPlatform resolves a platform spelling to its canonical display
// name. Returns the input unchanged with ok=false when unrecognized.
func CanonicalPlatform(s string) (string, bool) {
	if name, ok := platformNames[platformKey(s)]; ok {
		return name, true
	}
	return s, false
}

// TitleCaseLocation capitalizes each word of a location the way the schedule
// office writes them, keeping known abbreviations fully upper and single
// letters uppercased. A trailing recognized platform name is extracted before
// casing and re-appended canonically.
//
//	"phòng họp số 1 nhà i" -> "Phòng Họp Số 1 Nhà I"
//	"trực tuyến qua ms teams" -> "Trực Tuyến Qua MS Teams"
func TitleCaseLocation(s string) string {
	if s == "" {
		return s
	}

	var platform string
	if m := PlatformPattern.FindString(s); m != "" {
		platform, _ = CanonicalPlatform(m)
		s = strings.TrimSpace(PlatformPattern.ReplaceAllString(s, ""))
	}

	words := strings.Fields(s)
	for i, w := range words {
		lw := strings.ToLower(w)
		runes := []rune(w)
		switch {
		case isAllCapsWord(lw):
			words[i] = strings.ToUpper(w)
		case len(runes) == 1 && unicode.IsLetter(runes[0]):
			words[i] = strings.ToUpper(w)
		default:
			words[i] = string(unicode.ToUpper(runes[0])) + string(runes[1:])
		}
	}

	out := strings.Join(words, " ")
	if platform != "" {
		out = Norm(out + " " + platform)
	}
	return out
}

func isAllCapsWord(lower string) bool {
	_, ok := allCapsWords[lower]
	return ok
}
