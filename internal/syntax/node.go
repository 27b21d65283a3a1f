package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is an immutable view of one syntax node. The zero Node is "absent" (see IsZero); all accessors on it return zero values.
type Node struct {
	n   *sitter.Node
	src []byte
}

// IsZero reports whether n refers to no node.
func (n Node) IsZero() bool {
	return n.n == nil || n.n.IsNull()
}

// Kind returns the grammar node type (ex: "function_definition").
func (n Node) Kind() string {
	if n.IsZero() {
		return ""
	}
	return n.n.Type()
}

// Span returns the node's byte range in the original buffer.
func (n Node) Span() Span {
	if n.IsZero() {
		return Span{}
	}
	return Span{Start: int(n.n.StartByte()), End: int(n.n.EndByte())}
}

// StartPoint returns the node's start position.
func (n Node) StartPoint() Point {
	if n.IsZero() {
		return Point{}
	}
	p := n.n.StartPoint()
	return Point{Row: int(p.Row), Column: int(p.Column)}
}

// EndPoint returns the node's end position.
func (n Node) EndPoint() Point {
	if n.IsZero() {
		return Point{}
	}
	p := n.n.EndPoint()
	return Point{Row: int(p.Row), Column: int(p.Column)}
}

// Text returns the source bytes covered by n, as a string.
func (n Node) Text() string {
	if n.IsZero() {
		return ""
	}
	s := n.Span()
	return string(n.src[s.Start:s.End])
}

// TextThrough returns the source bytes from the start of n to the end of last, which must not start before n. It returns n.Text() if last is zero.
func (n Node) TextThrough(last Node) string {
	if n.IsZero() {
		return ""
	}
	start, end := n.Span().Start, n.Span().End
	if !last.IsZero() && last.Span().End > end {
		end = last.Span().End
	}
	return string(n.src[start:end])
}

// HasError reports whether the subtree rooted at n contains syntax errors.
func (n Node) HasError() bool {
	return !n.IsZero() && n.n.HasError()
}

// Field returns the child bound to the named field (ex: "body", "name", "declarator"). ok is false if there is no such child.
func (n Node) Field(name string) (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	c := n.wrap(n.n.ChildByFieldName(name))
	return c, !c.IsZero()
}

// NamedChildren returns n's named children in source order. Anonymous tokens (punctuation, keywords) are omitted.
func (n Node) NamedChildren() []Node {
	if n.IsZero() {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.wrap(n.n.NamedChild(i)); !c.IsZero() {
			out = append(out, c)
		}
	}
	return out
}

// PrevNamedSibling returns the named sibling immediately before n.
func (n Node) PrevNamedSibling() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	s := n.wrap(n.n.PrevNamedSibling())
	return s, !s.IsZero()
}

// NextNamedSibling returns the named sibling immediately after n.
func (n Node) NextNamedSibling() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	s := n.wrap(n.n.NextNamedSibling())
	return s, !s.IsZero()
}

// Parent returns n's parent, if any.
func (n Node) Parent() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	p := n.wrap(n.n.Parent())
	return p, !p.IsZero()
}

// Walk calls fn for n and then each named descendant, in document order. When fn returns false the node's descendants are skipped.
func (n Node) Walk(fn func(Node) bool) {
	if n.IsZero() || !fn(n) {
		return
	}
	for _, c := range n.NamedChildren() {
		c.Walk(fn)
	}
}

// Key identifies n by kind and span. Two Nodes from the same tree with equal keys denote the same syntactic slot.
func (n Node) Key() Key {
	return Key{Kind: n.Kind(), Span: n.Span()}
}

// Key is a comparable identity for a node within one tree.
type Key struct {
	Kind string
	Span Span
}

func (n Node) wrap(c *sitter.Node) Node {
	if c == nil {
		return Node{}
	}
	return Node{n: c, src: n.src}
}
