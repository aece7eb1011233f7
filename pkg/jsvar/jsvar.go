// Package jsvar pulls JSON literals out of `var name = ...;` assignments
// embedded in portal script text.
package jsvar

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// Extract finds the first `var <name> =` assignment in src (case-insensitive)
// and decodes its right-hand side. Numbers decode as json.Number.
// It reports false if the variable is missing, its brackets never balance,
// or the literal is not valid JSON.
func Extract(src, name string) (any, bool) {
	re, err := regexp.Compile(`(?i)var\s+` + regexp.QuoteMeta(name) + `\s*=`)
	if err != nil {
		return nil, false
	}
	loc := re.FindStringIndex(src)
	if loc == nil {
		return nil, false
	}

	start := loc[1]
	for start < len(src) && isSpace(src[start]) {
		start++
	}
	if start >= len(src) {
		return nil, false
	}

	var literal string
	switch open := src[start]; open {
	case '[', '{':
		end, ok := matchingBracket(src, start)
		if !ok {
			return nil, false
		}
		literal = src[start : end+1]
	default:
		end, ok := statementEnd(src, start)
		if !ok {
			return nil, false
		}
		literal = strings.TrimSpace(src[start:end])
	}

	return decode(literal)
}

// matchingBracket returns the index of the bracket closing the one at start.
// Brackets inside double-quoted strings are ignored.
func matchingBracket(src string, start int) (int, bool) {
	open := src[start]
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(src); i++ {
		c := src[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// statementEnd returns the index of the first ';' outside a string literal.
func statementEnd(src string, start int) (int, bool) {
	inString, escaped := false, false
	for i := start; i < len(src); i++ {
		c := src[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ';':
			return i, true
		}
	}
	return 0, false
}

func decode(literal string) (any, bool) {
	if literal == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(literal))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// Trailing garbage means the literal was not a single JSON value.
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}
