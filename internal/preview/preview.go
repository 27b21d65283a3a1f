// Package preview renders the changes autodoc would make as a unified diff, for `autodoc run --diff` and dry runs.
//
// Diffs are line-based (diffmatchpatch in line mode). Lines are compared without their trailing '\n'; a missing final newline is not reported separately.
package preview

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// NoChanges is printed in place of a diff when old and new text are equal.
const NoChanges = "No changes"

type line struct {
	tag  byte // ' ', '-', '+'
	text string
}

// Unified returns a unified diff from oldText to newText with `--- a/<name>` and `+++ b/<name>` headers. If the texts are equal it returns "". If colored, headers,
// hunk markers, and changed lines carry ANSI colors.
func Unified(oldText, newText, name string, contextSize int, colored bool) string {
	if oldText == newText {
		return ""
	}
	if contextSize < 0 {
		contextSize = 0
	}

	header := newPainter(colored, color.Bold)
	hunkMark := newPainter(colored, color.FgCyan)
	del := newPainter(colored, color.FgRed)
	add := newPainter(colored, color.FgGreen)

	lines := diffLines(oldText, newText)

	var out []string
	out = append(out, header.Sprint("--- a/"+name), header.Sprint("+++ b/"+name))
	for _, g := range groups(lines, contextSize) {
		oldStart, newStart := 1, 1
		for _, l := range lines[:g.start] {
			if l.tag != '+' {
				oldStart++
			}
			if l.tag != '-' {
				newStart++
			}
		}
		oldCount, newCount := 0, 0
		var body []string
		for _, l := range lines[g.start:g.end] {
			switch l.tag {
			case '-':
				oldCount++
				body = append(body, del.Sprint("-"+l.text))
			case '+':
				newCount++
				body = append(body, add.Sprint("+"+l.text))
			default:
				oldCount++
				newCount++
				body = append(body, " "+l.text)
			}
		}
		// An empty side is addressed by the line before it.
		if oldCount == 0 {
			oldStart--
		}
		if newCount == 0 {
			newStart--
		}
		out = append(out, hunkMark.Sprint(fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)))
		out = append(out, body...)
	}
	return strings.Join(out, "\n") + "\n"
}

// diffLines diffs by line and returns every line of both texts, tagged, in unified order.
func diffLines(oldText, newText string) []line {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(a, b, false))

	var lines []line
	for _, d := range diffs {
		tag := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			tag = '-'
		case diffmatchpatch.DiffInsert:
			tag = '+'
		}
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			lines = append(lines, line{tag: tag, text: strings.TrimSuffix(lineArray[idx], "\n")})
		}
	}
	return lines
}

type span struct{ start, end int }

// groups returns the [start, end) line ranges of hunks: each change plus contextSize lines on either side, with ranges that touch or overlap merged.
func groups(lines []line, contextSize int) []span {
	var out []span
	for i, l := range lines {
		if l.tag == ' ' {
			continue
		}
		start := max(0, i-contextSize)
		end := min(len(lines), i+contextSize+1)
		if n := len(out); n > 0 && start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, end)
			continue
		}
		out = append(out, span{start: start, end: end})
	}
	return out
}

// newPainter returns a color whose enablement is fixed by colored, independent of the package-level color.NoColor.
func newPainter(colored bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// ColorEnabled reports whether output to f should be colored: f is a terminal, noColor is false, and NO_COLOR is unset.
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
