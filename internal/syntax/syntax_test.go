package syntax

import (
	"context"
	"errors"
	"testing"

	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePython(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(src), python.GetLanguage())
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParseAndNodeAccessors(t *testing.T) {
	src := "def f(x):\n    return x\n"
	tree := parsePython(t, src)

	root := tree.Root()
	assert.Equal(t, "module", root.Kind())
	assert.False(t, root.HasError())

	children := root.NamedChildren()
	require.Len(t, children, 1)
	fn := children[0]
	assert.Equal(t, "function_definition", fn.Kind())
	assert.Equal(t, Span{Start: 0, End: len(src) - 1}, fn.Span())
	assert.Equal(t, Point{Row: 0, Column: 0}, fn.StartPoint())

	name, ok := fn.Field("name")
	require.True(t, ok)
	assert.Equal(t, "f", name.Text())

	body, ok := fn.Field("body")
	require.True(t, ok)
	stmts := body.NamedChildren()
	require.Len(t, stmts, 1)
	assert.Equal(t, "return_statement", stmts[0].Kind())
	assert.Equal(t, Point{Row: 1, Column: 4}, stmts[0].StartPoint())

	_, ok = fn.Field("no_such_field")
	assert.False(t, ok)

	parent, ok := stmts[0].Parent()
	require.True(t, ok)
	assert.Equal(t, body.Key(), parent.Key())
}

func TestZeroNode(t *testing.T) {
	var n Node
	assert.True(t, n.IsZero())
	assert.Equal(t, "", n.Kind())
	assert.Equal(t, "", n.Text())
	assert.Nil(t, n.NamedChildren())
	_, ok := n.Field("body")
	assert.False(t, ok)
	_, ok = n.PrevNamedSibling()
	assert.False(t, ok)
}

func TestSiblings(t *testing.T) {
	tree := parsePython(t, "# c\ndef f():\n    pass\n")
	children := tree.Root().NamedChildren()
	require.Len(t, children, 2)

	prev, ok := children[1].PrevNamedSibling()
	require.True(t, ok)
	assert.Equal(t, "comment", prev.Kind())

	next, ok := children[0].NextNamedSibling()
	require.True(t, ok)
	assert.Equal(t, "function_definition", next.Kind())
}

func TestTextThrough(t *testing.T) {
	tree := parsePython(t, "# a\n# b\ndef f():\n    pass\n")
	children := tree.Root().NamedChildren()
	require.Len(t, children, 3)
	assert.Equal(t, "# a\n# b", children[0].TextThrough(children[1]))
	assert.Equal(t, "# a", children[0].TextThrough(Node{}))
	assert.Equal(t, "", Node{}.TextThrough(children[1]))
}

func TestParseNilLanguage(t *testing.T) {
	_, err := Parse(context.Background(), []byte("x"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestCompilePatternError(t *testing.T) {
	_, err := CompilePattern(python.GetLanguage(), "(no_such_node_kind) @x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPattern))
}

func TestEvaluateIsDeterministic(t *testing.T) {
	src := "def a():\n    '''doc'''\n\ndef b():\n    pass\n"
	tree := parsePython(t, src)
	p, err := CompilePattern(python.GetLanguage(), "(function_definition) @func")
	require.NoError(t, err)

	first, err := tree.Evaluate(p)
	require.NoError(t, err)
	second, err := tree.Evaluate(p)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Len(t, first[i]["func"], 1)
		assert.Equal(t, first[i]["func"][0].Key(), second[i]["func"][0].Key())
	}
}

func TestEvaluateAppliesPredicates(t *testing.T) {
	tree := parsePython(t, "# keep\n# drop\nx = 1\n")
	p, err := CompilePattern(python.GetLanguage(), `((comment) @c (#match? @c "keep"))`)
	require.NoError(t, err)

	matches, err := tree.Evaluate(p)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "# keep", matches[0]["c"][0].Text())
}

// The classifier pairs the i-th declaration capture with the i-th documentation capture of a match. This checks the ordering contract it depends on: within a match,
// each label's nodes are in document order, and paired captures belong together.
func TestEvaluateCaptureOrderConformance(t *testing.T) {
	src := "def a():\n    '''A'''\n\ndef b():\n    '''B'''\n    x = 1\n\n'''s1'''\n'''s2'''\n"
	tree := parsePython(t, src)

	paired, err := CompilePattern(python.GetLanguage(), `(function_definition body: (block . (expression_statement (string) @docstring))) @func`)
	require.NoError(t, err)
	matches, err := tree.Evaluate(paired)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Len(t, m["func"], 1)
		require.Len(t, m["docstring"], 1)
		assert.True(t, m["func"][0].Span().Contains(m["docstring"][0].Span()), "docstring must be paired with its own function")
	}
	assert.Less(t, matches[0]["func"][0].Span().Start, matches[1]["func"][0].Span().Start)

	multi, err := CompilePattern(python.GetLanguage(), `(module (expression_statement (string) @s)+)`)
	require.NoError(t, err)
	matches, err = tree.Evaluate(multi)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		nodes := m["s"]
		require.NotEmpty(t, nodes)
		for i := 1; i < len(nodes); i++ {
			assert.Less(t, nodes[i-1].Span().Start, nodes[i].Span().Start)
		}
	}
}

func TestEvaluateIn(t *testing.T) {
	tree := parsePython(t, "def a(x):\n    y = x\n\ndef b(z):\n    w = z\n")
	p, err := CompilePattern(python.GetLanguage(), "(assignment left: (identifier) @name)")
	require.NoError(t, err)

	funcs := tree.Root().NamedChildren()
	require.Len(t, funcs, 2)
	matches, err := tree.EvaluateIn(p, funcs[1])
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "w", matches[0]["name"][0].Text())

	matches, err = tree.EvaluateIn(p, Node{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWalk(t *testing.T) {
	tree := parsePython(t, "def f(a):\n    return a.b\n")
	var idents []string
	tree.Root().Walk(func(n Node) bool {
		if n.Kind() == "identifier" {
			idents = append(idents, n.Text())
		}
		return true
	})
	assert.Equal(t, []string{"f", "a", "a", "b"}, idents)

	var kinds []string
	tree.Root().Walk(func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != "function_definition"
	})
	assert.Equal(t, []string{"module", "function_definition"}, kinds)
}

func TestSpan(t *testing.T) {
	s := Span{Start: 2, End: 10}
	assert.Equal(t, 8, s.Len())
	assert.True(t, s.Contains(Span{Start: 2, End: 10}))
	assert.True(t, s.Contains(Span{Start: 3, End: 3}))
	assert.False(t, s.Contains(Span{Start: 1, End: 3}))
	assert.Equal(t, "[2,10)", s.String())
}
