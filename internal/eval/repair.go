package eval

import "strings"

// StripTrailingReturn removes the last top-level return statement and
// everything after it. It reports false when source has no top-level
// return. Strings, template literals and comments are skipped; regular
// expression literals are not recognized.
func StripTrailingReturn(source string) (string, bool) {
	last := -1
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = skipQuoted(source, i)
		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			i = skipUntil(source, i+2, "\n")
		case c == '/' && i+1 < len(source) && source[i+1] == '*':
			i = skipUntil(source, i+2, "*/") + 1
		case c == '{' || c == '(' || c == '[':
			depth++
		case c == '}' || c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0 && isKeywordAt(source, i, "return"):
			last = i
			i += len("return") - 1
		}
	}
	if last < 0 {
		return source, false
	}
	return strings.TrimRight(source[:last], " \t\r\n"), true
}

// skipQuoted returns the index of the quote closing the string opened at i.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return j
			}
		}
	}
	return len(s)
}

// skipUntil returns the index of the first byte of end at or after i, or
// the end of s.
func skipUntil(s string, i int, end string) int {
	if i > len(s) {
		return len(s)
	}
	if n := strings.Index(s[i:], end); n >= 0 {
		return i + n
	}
	return len(s)
}

func isKeywordAt(s string, i int, kw string) bool {
	if !strings.HasPrefix(s[i:], kw) {
		return false
	}
	if i > 0 && isIdentByte(s[i-1]) {
		return false
	}
	end := i + len(kw)
	return end == len(s) || !isIdentByte(s[end])
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
