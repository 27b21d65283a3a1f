// Package docformat renders plain documentation text into the comment syntax of a target language.
//
// Rendering is indentation-aware: the input text is trimmed and dedented first (generators often return pre-indented text), then every line is re-indented with the
// caller's prefix. Blank lines never carry trailing whitespace. Every rendered block ends with exactly one newline, so the line after it starts at column 0.
package docformat

import (
	"bytes"
	"strings"
)

// Style is a documentation comment convention. The set is closed; unknown values render as StyleLine.
type Style int

const (
	// StyleLine renders one line comment per text line (ex: "// text"). It is the generic fallback.
	StyleLine Style = iota

	// StyleTripleQuoted renders a triple-quoted string literal (Python docstrings).
	StyleTripleQuoted

	// StyleBlockAsterisk renders a /** ... */ block with a leading " * " on each line (JSDoc, Javadoc, Doxygen).
	StyleBlockAsterisk
)

// String returns the style's name.
func (s Style) String() string {
	switch s {
	case StyleTripleQuoted:
		return "triple-quoted"
	case StyleBlockAsterisk:
		return "block-asterisk"
	default:
		return "line"
	}
}

// Render renders text in style, with every line prefixed by indentation. The result is newline-terminated. Empty text (after trimming) renders an empty block for
// the style rather than nothing, so callers always get a syntactically complete comment.
func Render(style Style, text string, indentation string) string {
	lines := normalize(text)

	var b strings.Builder
	switch style {
	case StyleTripleQuoted:
		b.WriteString(indentation)
		b.WriteString(`"""`)
		b.WriteByte('\n')
		for _, line := range lines {
			if line != "" {
				b.WriteString(indentation)
				b.WriteString(strings.ReplaceAll(line, `"""`, `\"\"\"`))
			}
			b.WriteByte('\n')
		}
		b.WriteString(indentation)
		b.WriteString(`"""`)
		b.WriteByte('\n')

	case StyleBlockAsterisk:
		b.WriteString(indentation)
		b.WriteString("/**\n")
		for _, line := range lines {
			b.WriteString(indentation)
			if line == "" {
				b.WriteString(" *\n")
				continue
			}
			b.WriteString(" * ")
			b.WriteString(strings.ReplaceAll(line, "*/", `*\/`))
			b.WriteByte('\n')
		}
		// The closing line keeps the single trailing space that existing tooling emits.
		b.WriteString(indentation)
		b.WriteString(" */ \n")

	default:
		if len(lines) == 0 {
			lines = []string{""}
		}
		for _, line := range lines {
			b.WriteString(indentation)
			if line == "" {
				b.WriteString("//\n")
				continue
			}
			b.WriteString("// ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// LineEnding returns "\r\n" if src's first line break is CRLF, otherwise "\n".
func LineEnding(src []byte) string {
	i := bytes.IndexByte(src, '\n')
	if i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// ConvertLineEndings returns s with every line break (LF or CRLF) written as eol.
func ConvertLineEndings(s string, eol string) string {
	if eol == "\n" || eol == "" {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", eol)
}

// normalize trims text, removes the common leading indentation of its non-blank lines, strips trailing whitespace per line, and returns the lines. Empty text yields
// no lines.
func normalize(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(Dedent(text), "\n")
}

// Dedent removes the longest common leading whitespace prefix from all non-blank lines of s, then trims surrounding blank lines and trailing whitespace on each
// line. Whitespace-only lines become empty.
//
// When the first non-blank line is flush left but later lines are indented (the usual shape of `"""Summary.\n    Details."""`), the first line does not take part
// in computing the common prefix.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	first := -1
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
		if first == -1 && lines[i] != "" {
			first = i
		}
	}
	if first == -1 {
		return ""
	}

	skipFirst := leadingWhitespace(lines[first]) == ""
	prefix := ""
	havePrefix := false
	for i, line := range lines {
		if line == "" || (skipFirst && i == first) {
			continue
		}
		lead := leadingWhitespace(line)
		if !havePrefix {
			prefix = lead
			havePrefix = true
			continue
		}
		prefix = commonPrefix(prefix, lead)
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	// Drop leading and trailing blank lines.
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
