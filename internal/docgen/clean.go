package docgen

import (
	"bytes"
	"strings"

	"github.com/codalotl/autodoc/internal/docformat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CleanResponse turns a model's answer into plain documentation content. Models often ignore "no fences, no comment markers" instructions, so:
//   - if the answer contains fenced code blocks, the last non-empty one is used;
//   - surrounding triple quotes, block-comment markers, and per-line ` * ` or `//` prefixes are removed;
//   - common indentation and blank edge lines are removed.
func CleanResponse(response string) string {
	s := strings.ReplaceAll(response, "\r\n", "\n")
	if fenced, ok := lastFencedBlock(s); ok {
		s = fenced
	}
	s = docformat.Dedent(s)
	s = stripQuotes(s)
	s = stripBlockComment(s)
	s = stripLineComments(s)
	return docformat.Dedent(s)
}

func lastFencedBlock(s string) (string, bool) {
	src := []byte(s)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var last string
	found := false
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		if strings.TrimSpace(buf.String()) != "" {
			last = buf.String()
			found = true
		}
		return ast.WalkSkipChildren, nil
	})
	return last, found
}

func stripQuotes(s string) string {
	for _, q := range []string{`"""`, `'''`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return s
}

func stripBlockComment(s string) string {
	if !strings.HasPrefix(s, "/*") || !strings.HasSuffix(s, "*/") || len(s) < 4 {
		return s
	}
	s = strings.TrimPrefix(s[:len(s)-2], "/**")
	s = strings.TrimPrefix(s, "/*")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "*") {
			lines[i] = strings.TrimPrefix(strings.TrimPrefix(trimmed, "*"), " ")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// stripLineComments removes `//` (or `///`) prefixes when every non-blank line has one.
func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t != "" && !strings.HasPrefix(t, "//") {
			return s
		}
	}
	for i, line := range lines {
		t := strings.TrimLeft(strings.TrimSpace(line), "/")
		lines[i] = strings.TrimPrefix(t, " ")
	}
	return strings.Join(lines, "\n")
}
