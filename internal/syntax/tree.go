package syntax

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// ErrParse is matched (via errors.Is) by every error returned from Parse.
var ErrParse = errors.New("parse failure")

// Span is a half-open byte range [Start, End) into an original buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// String returns s in "[start,end)" form.
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Point is a zero-based (row, column) position. Column is measured in bytes.
type Point struct {
	Row    int
	Column int
}

// Tree is a parsed syntax tree together with the buffer it views.
type Tree struct {
	tree *sitter.Tree
	src  []byte
	lang *sitter.Language
}

// Parse parses src with the grammar lang. The returned Tree must be closed by the caller. A tree with syntax errors is still returned (tree-sitter recovers), but
// callers can detect it with Root().HasError().
func Parse(ctx context.Context, src []byte, lang *sitter.Language) (*Tree, error) {
	if lang == nil {
		return nil, fmt.Errorf("%w: nil language", ErrParse)
	}
	// tree-sitter addresses bytes with uint32.
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, fmt.Errorf("%w: source too large (%d bytes)", ErrParse, len(src))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if t == nil || t.RootNode() == nil {
		return nil, fmt.Errorf("%w: no tree produced", ErrParse)
	}

	return &Tree{tree: t, src: src, lang: lang}, nil
}

// Source returns the (immutable) buffer the tree was parsed from. Callers must not modify it.
func (t *Tree) Source() []byte {
	return t.src
}

// Root returns the root node of the tree.
func (t *Tree) Root() Node {
	return Node{n: t.tree.RootNode(), src: t.src}
}

// Close releases the native tree. Nodes obtained from t are invalid afterward.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}
