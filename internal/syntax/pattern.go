package syntax

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrPattern is matched (via errors.Is) by errors from compiling or evaluating a Pattern.
var ErrPattern = errors.New("pattern evaluation error")

// Pattern is a compiled tree-sitter query. It is immutable and safe for concurrent use.
type Pattern struct {
	source string
	query  *sitter.Query
}

// Captures maps a capture label (ex: "func", "docstring") to the nodes captured under it in one match, in capture order.
type Captures map[string][]Node

// CompilePattern compiles source (tree-sitter query syntax) for lang.
func CompilePattern(lang *sitter.Language, source string) (*Pattern, error) {
	if lang == nil {
		return nil, fmt.Errorf("%w: nil language", ErrPattern)
	}
	q, err := sitter.NewQuery([]byte(source), lang)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %w", ErrPattern, err)
	}
	return &Pattern{source: source, query: q}, nil
}

// Source returns the query text p was compiled from.
func (p *Pattern) Source() string {
	return p.source
}

// Evaluate runs p against the whole tree and returns one Captures per match, in the order tree-sitter reports matches. Predicates (#match?, #eq?, ...) are applied;
// a match whose predicates fail is dropped. Evaluating the same pattern against the same tree always yields identical results.
//
// Within a match, the nodes under one label are in the order tree-sitter reports captures, which is capture order in the pattern, then document order. Callers that
// pair labels positionally rely on this.
func (t *Tree) Evaluate(p *Pattern) ([]Captures, error) {
	return t.EvaluateIn(p, t.Root())
}

// EvaluateIn is Evaluate restricted to matches inside the subtree rooted at n, which must belong to t.
func (t *Tree) EvaluateIn(p *Pattern, n Node) ([]Captures, error) {
	if p == nil || p.query == nil {
		return nil, fmt.Errorf("%w: nil pattern", ErrPattern)
	}
	if n.IsZero() {
		return nil, nil
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.query, n.n)

	var out []Captures
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, t.src)
		if len(m.Captures) == 0 {
			continue
		}

		caps := make(Captures)
		for _, c := range m.Captures {
			label := p.query.CaptureNameForId(c.Index)
			node := Node{n: c.Node, src: t.src}
			caps[label] = append(caps[label], node)
		}
		out = append(out, caps)
	}
	return out, nil
}
