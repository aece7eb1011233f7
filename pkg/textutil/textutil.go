// Package textutil holds the small string helpers shared by the portal parsers:
// search-key folding, HTML entity decoding and wall-clock time normalization.
package textutil

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MissingTime is returned by NormalizeTime for blank input.
const MissingTime = "--:--"

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
)

// NormalizeSearchKey folds accents and case and drops everything that is not
// a letter or a digit, so "INFORMÀTICA" and "Informatica" compare equal.
func NormalizeSearchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DecodeHTMLEntities replaces the handful of entities the portal emits.
// Replacement is single-pass, so "&amp;lt;" becomes "&lt;" and not "<".
func DecodeHTMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}

// FirstNonEmpty returns the first value that is not blank after trimming,
// with HTML entities decoded. The second result is false when every value is blank.
func FirstNonEmpty(values ...string) (string, bool) {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			return DecodeHTMLEntities(trimmed), true
		}
	}
	return "", false
}

// NormalizeTime turns "9:05" or "09:05:00" into "09:05". Input that does not
// look like a time is returned trimmed; blank input yields MissingTime.
func NormalizeTime(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MissingTime
	}

	head := trimmed
	if r := []rune(head); len(r) > 8 {
		head = string(r[:8])
	}

	parts := strings.SplitN(head, ":", 2)
	if len(parts) == 2 {
		hour := strings.TrimSpace(parts[0])
		minute := parts[1]
		if r := []rune(minute); len(r) > 2 {
			minute = string(r[:2])
		}
		minute = strings.TrimSpace(minute)

		if hour != "" && len(minute) == 2 && allDigits(hour) && allDigits(minute) {
			h, err := strconv.Atoi(hour)
			if err == nil {
				return fmt.Sprintf("%02d:%s", h, minute)
			}
		}
	}

	return trimmed
}

// AddMinutes shifts an "HH:MM" time by n minutes, wrapping at midnight.
// It reports false when the input cannot be parsed or the result is negative.
func AddMinutes(n int, hhmm string) (string, bool) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return "", false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}

	total := hour*60 + minute + n
	if total < 0 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60), true
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
