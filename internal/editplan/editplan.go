// Package editplan turns "this declaration should carry this documentation" into a single patch.Edit against the original buffer.
//
// The planner decides where documentation goes (inside the body or above the declaration, per the profile's InsertionMode), what indentation it takes, and what byte
// span an insertion or replacement covers. All offsets are computed against the original buffer through a line index; the planner never looks at a partially edited
// buffer, so edits for different declarations can be planned independently and committed together by patch.Apply.
package editplan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codalotl/autodoc/internal/docformat"
	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/patch"
	"github.com/codalotl/autodoc/internal/syntax"
)

var (
	// ErrMissingName is returned when a declaration's name cannot be resolved. Callers skip the declaration.
	ErrMissingName = errors.New("declaration name could not be resolved")

	// ErrNoBody is returned when a body-relative declaration has no statement to anchor documentation to.
	ErrNoBody = errors.New("declaration has no body statement")
)

// Planner plans documentation edits for one source buffer.
type Planner struct {
	profile langprofile.Profile
	source  []byte
	lines   lineIndex
	eol     string // the source's line ending; rendered text is converted to it

	// WrapWidth, if > 0, reflows documentation text to at most this many display columns (not counting indentation and comment markers) before rendering.
	WrapWidth int

	// IndentWidth, if > 0, overrides the profile's indent unit width (body-relative documentation, and declarations moved off a line of code).
	IndentWidth int
}

// New returns a planner for source, which must be the exact buffer the declarations were parsed from.
func New(profile langprofile.Profile, source []byte) *Planner {
	return &Planner{profile: profile, source: source, lines: newLineIndex(source), eol: docformat.LineEnding(source)}
}

// Name returns the text of decl's name, or ErrMissingName.
func (p *Planner) Name(decl syntax.Node) (string, error) {
	n, ok := p.profile.ResolveName(decl)
	if !ok || strings.TrimSpace(n.Text()) == "" {
		return "", fmt.Errorf("%w: %s at line %d", ErrMissingName, decl.Kind(), decl.StartPoint().Row+1)
	}
	return n.Text(), nil
}

// Plan returns the edit that gives decl the documentation text. existing is decl's current documentation node, or the zero Node if it has none; when present the
// edit replaces it (together with the rest of its block, per the profile's DocGroupStart), otherwise the edit inserts new documentation. text is plain documentation
// content (no comment markers); it is rendered with the profile's comment style at the computed indentation, using the source's line ending.
func (p *Planner) Plan(decl syntax.Node, text string, existing syntax.Node) (patch.Edit, error) {
	if _, err := p.Name(decl); err != nil {
		return patch.Edit{}, err
	}
	if p.WrapWidth > 0 {
		text = docformat.Reflow(docformat.Dedent(text), p.WrapWidth)
	}

	var edit patch.Edit
	switch p.profile.InsertionMode() {
	case langprofile.BodyRelative:
		if existing.IsZero() {
			var err error
			if edit, err = p.insertInBody(decl, text); err != nil {
				return patch.Edit{}, err
			}
			break
		}
		edit = p.replace(existing, existing, p.BodyIndentation(decl), text)
	default:
		if existing.IsZero() {
			edit = p.insertAbove(decl, text)
			break
		}
		edit = p.replace(p.profile.DocGroupStart(existing), existing, p.DeclarationIndentation(decl), text)
	}
	edit.Text = docformat.ConvertLineEndings(edit.Text, p.eol)
	return edit, nil
}

// DeclarationIndentation returns the leading whitespace of the line on which decl (or its anchor) starts.
func (p *Planner) DeclarationIndentation(decl syntax.Node) string {
	anchor := p.profile.Anchor(decl)
	return p.lines.indentation(p.source, anchor.Span().Start)
}

// BodyIndentation returns the indentation for body-relative documentation: the declaration's indentation plus one indent unit. The unit is a tab if the declaration's
// indentation contains a tab, otherwise IndentWidth spaces (the planner's, else the profile's).
func (p *Planner) BodyIndentation(decl syntax.Node) string {
	ind := p.DeclarationIndentation(decl)
	return ind + p.indentUnit(ind)
}

// indentUnit returns one indentation level to nest under ind: a tab if ind contains a tab, otherwise IndentWidth spaces (the planner's, else the profile's).
func (p *Planner) indentUnit(ind string) string {
	if strings.Contains(ind, "\t") {
		return "\t"
	}
	width := p.IndentWidth
	if width <= 0 {
		width = p.profile.IndentWidth()
	}
	if width <= 0 {
		width = langprofile.DefaultIndentWidth
	}
	return strings.Repeat(" ", width)
}

func (p *Planner) insertInBody(decl syntax.Node, text string) (patch.Edit, error) {
	stmt, ok := p.profile.FirstBodyStatement(decl)
	if !ok {
		return patch.Edit{}, fmt.Errorf("%w: line %d", ErrNoBody, decl.StartPoint().Row+1)
	}
	indent := p.BodyIndentation(decl)
	rendered := docformat.Render(p.profile.CommentStyle(), text, indent)

	start := stmt.Span().Start
	lineStart := p.lines.lineStart(start)
	if isBlank(p.source[lineStart:start]) {
		// Replace the statement's leading whitespace so the statement ends up at exactly `indent`.
		return patch.Edit{Start: lineStart, End: start, Text: rendered + indent}, nil
	}

	// Single-line body (ex: `def f(): return x`): break the line after the header.
	codeEnd := trimBlankLeft(p.source, lineStart, start)
	return patch.Edit{Start: codeEnd, End: start, Text: "\n" + rendered + indent}, nil
}

func (p *Planner) insertAbove(decl syntax.Node, text string) patch.Edit {
	anchor := p.profile.Anchor(decl)
	indent := p.DeclarationIndentation(decl)

	start := anchor.Span().Start
	lineStart := p.lines.lineStart(start)
	if isBlank(p.source[lineStart:start]) {
		return patch.Edit{Start: lineStart, End: lineStart, Text: docformat.Render(p.profile.CommentStyle(), text, indent)}
	}

	// Code precedes the declaration on its line (ex: `const o = { m() {} };`): the declaration moves to its own line, nested one level under that code.
	indent += p.indentUnit(indent)
	rendered := docformat.Render(p.profile.CommentStyle(), text, indent)
	codeEnd := trimBlankLeft(p.source, lineStart, start)
	return patch.Edit{Start: codeEnd, End: start, Text: "\n" + rendered + indent}
}

// replace replaces [first.Start, last.End) (widened to the start of first's line when only whitespace precedes it) with text rendered at indent. The rendered
// block's final newline is dropped: the newline after last, and whatever follows it, stay untouched.
func (p *Planner) replace(first, last syntax.Node, indent string, text string) patch.Edit {
	rendered := strings.TrimSuffix(docformat.Render(p.profile.CommentStyle(), text, indent), "\n")

	start := first.Span().Start
	end := last.Span().End
	if end > start && p.source[end-1] == '\r' {
		// Line comments in CRLF files can include the carriage return; it stays with the line break.
		end--
	}
	lineStart := p.lines.lineStart(start)
	if isBlank(p.source[lineStart:start]) {
		return patch.Edit{Start: lineStart, End: end, Text: rendered}
	}

	// Something precedes the doc on its line (ex: `def f(): "doc"`): the new block starts on its own line.
	codeEnd := trimBlankLeft(p.source, lineStart, start)
	return patch.Edit{Start: codeEnd, End: end, Text: "\n" + rendered}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}

// trimBlankLeft returns the offset just past the last non-blank byte in source[lo:hi].
func trimBlankLeft(source []byte, lo, hi int) int {
	for hi > lo && (source[hi-1] == ' ' || source[hi-1] == '\t') {
		hi--
	}
	return hi
}

// lineIndex holds the byte offset at which each line starts.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, c := range src {
		if c == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// lineStart returns the offset of the first byte of the line containing offset.
func (idx lineIndex) lineStart(offset int) int {
	i := sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) - 1
	if i < 0 {
		return 0
	}
	return idx[i]
}

// indentation returns the leading spaces and tabs of the line containing offset.
func (idx lineIndex) indentation(src []byte, offset int) string {
	start := idx.lineStart(offset)
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}
