package curriculum

import (
	"regexp"
	"strings"
	"unicode"
)

var curriculumAssignRegex = regexp.MustCompile(`curriculum\s*=\s*(\{[\s\S]*\});`)

// extractCurriculumLiteral finds the `curriculum = {...};` object literal of a script.
func extractCurriculumLiteral(src string) (string, bool) {
	m := curriculumAssignRegex.FindStringSubmatch(src)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// literalToJSON rewrites a plain object literal into JSON: comments are dropped, bare keys get
// quoted, single-quoted strings become double-quoted and trailing commas are removed.
// Expressions (function calls, spreads, variables) are left as is and fail JSON decoding.
func literalToJSON(lit string) string {
	var out strings.Builder
	src := []rune(lit)
	n := len(src)

	for i := 0; i < n; i++ {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
			out.WriteRune('\n')
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i++
		case c == '"' || c == '\'' || c == '`':
			i = copyString(&out, src, i)
		case c == ',':
			j := skipSpaceAndComments(src, i+1)
			if j < n && (src[j] == '}' || src[j] == ']') {
				continue // trailing comma
			}
			out.WriteRune(c)
		case unicode.IsLetter(c) || c == '_' || c == '$':
			j := i
			for j < n && (unicode.IsLetter(src[j]) || unicode.IsDigit(src[j]) || src[j] == '_' || src[j] == '$') {
				j++
			}
			word := string(src[i:j])
			k := skipSpaceAndComments(src, j)
			if k < n && src[k] == ':' && isKeyPosition(out.String()) {
				out.WriteString(`"` + word + `"`)
			} else {
				out.WriteString(word)
			}
			i = j - 1
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}

// copyString writes the string literal starting at src[start] as a JSON string and returns its last index.
func copyString(out *strings.Builder, src []rune, start int) int {
	quote := src[start]
	out.WriteRune('"')
	i := start + 1
	for ; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			next := src[i+1]
			if next == '\'' || next == '`' {
				out.WriteRune(next)
			} else {
				out.WriteRune(c)
				out.WriteRune(next)
			}
			i++
		case c == quote:
			out.WriteRune('"')
			return i
		case c == '"':
			out.WriteString(`\"`)
		case c == '\n':
			out.WriteString(`\n`)
		default:
			out.WriteRune(c)
		}
	}
	return i
}

func skipSpaceAndComments(src []rune, i int) int {
	for i < len(src) {
		switch {
		case unicode.IsSpace(src[i]):
			i++
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2
		default:
			return i
		}
	}
	return i
}

// isKeyPosition reports whether the output so far ends where an object key may start.
func isKeyPosition(written string) bool {
	trimmed := strings.TrimRightFunc(written, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return last == '{' || last == ','
}
