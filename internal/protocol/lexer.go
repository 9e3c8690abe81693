package protocol

import (
	"strings"
	"unicode"
)

// Lex splits a command line into words. Every unquoted space ends a word, a
// double quote toggles quoted mode and is dropped, and a backslash makes the
// next character literal. Lex never fails: an unterminated quote runs to the
// end of the line.
func Lex(line string) []string {
	tokens := make([]string, 0, 4)
	var (
		word     strings.Builder
		quoted   bool
		escaped  bool
		sawQuote bool
	)
	for _, c := range line {
		switch {
		case escaped:
			word.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
			sawQuote = true
		case c == ' ' && !quoted:
			tokens = append(tokens, word.String())
			word.Reset()
			sawQuote = false
		default:
			word.WriteRune(c)
		}
	}
	// A trailing `""` is still a word.
	if word.Len() > 0 || sawQuote {
		tokens = append(tokens, word.String())
	}
	return tokens
}

// Quote renders s as a single word that Lex reads back unchanged, even after
// the surrounding whitespace of the command line has been trimmed.
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, "\"\\") && strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, c := range s {
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('"')
	return b.String()
}
