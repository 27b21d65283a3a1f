package docformat

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// widthCondition measures monospace terminal columns in a non-East-Asian locale.
var widthCondition = func() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true
	return cond
}()

// Reflow rewraps the paragraphs of text so that no line is wider than width display columns, except where a single word is itself wider. Paragraphs are separated
// by blank lines and are preserved. Lines that look structural are kept as-is: indented lines (code, argument lists in numpy/google styles), list items, and section
// headers ending in ":". A width <= 0 returns text unchanged.
func Reflow(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(Dedent(text), "\n")
	var out []string
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		out = append(out, wrapWords(strings.Fields(strings.Join(para, " ")), width)...)
		para = para[:0]
	}

	for _, line := range lines {
		switch {
		case line == "":
			flush()
			out = append(out, "")
		case isStructuralLine(line):
			flush()
			out = append(out, line)
		default:
			para = append(para, line)
		}
	}
	flush()

	return strings.Join(out, "\n")
}

func isStructuralLine(line string) bool {
	if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
		return true
	}
	trimmed := strings.TrimSpace(line)
	for _, bullet := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(trimmed, bullet) {
			return true
		}
	}
	if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, " ") {
		return true
	}
	// rst/numpy underlines: "-----", "=====".
	if strings.Trim(trimmed, "-=~") == "" {
		return true
	}
	return false
}

func wrapWords(words []string, width int) []string {
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, w := range words {
		ww := DisplayWidth(w)
		if curWidth > 0 && curWidth+1+ww > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(w)
		curWidth += ww
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// DisplayWidth returns the number of monospace columns s occupies, measured per grapheme cluster so that combining sequences and emoji count once.
func DisplayWidth(s string) int {
	total := 0
	iter := graphemes.FromString(s)
	for iter.Next() {
		total += widthCondition.StringWidth(iter.Value())
	}
	return total
}
