package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/sourcetesting"
	"github.com/codalotl/autodoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifySource(t *testing.T, profileID string, src string) Result {
	t.Helper()
	p, ok := langprofile.Lookup(profileID)
	require.True(t, ok)
	return classifyWith(t, p, src)
}

func classifyWith(t *testing.T, p langprofile.Profile, src string) Result {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), []byte(src), p.Language())
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	res, err := Classify(tree, p)
	require.NoError(t, err)
	return res
}

func names(t *testing.T, p langprofile.Profile, decls []Declaration) []string {
	var out []string
	for _, d := range decls {
		n, ok := p.ResolveName(d.Node)
		require.True(t, ok)
		out = append(out, n.Text())
	}
	return out
}

func TestClassifyPython(t *testing.T) {
	src := sourcetesting.Dedent(`
		def documented(x):
		    """Returns x."""
		    return x

		def plain(x):
		    return x

		class C:
		    def method(self):
		        # comment first
		        "doc after comment"
		        pass

		    def other(self):
		        pass
	`)
	res := classifySource(t, "python", src)
	p, _ := langprofile.Lookup("python")

	assert.Equal(t, []string{"documented", "plain", "method", "other"}, names(t, p, res.Declarations))
	assert.Equal(t, []string{"plain", "other"}, names(t, p, res.Undocumented))
	assert.Len(t, res.Documented, 2)
	assert.Empty(t, res.Diagnostics)

	rec := res.Documented[res.Declarations[0].Key()]
	assert.Equal(t, `"""Returns x."""`, rec.Doc.Text())
	assert.Equal(t, `"""Returns x."""`, rec.DocText())

	// Found by the structural fallback (the pattern requires the string to be the first child).
	rec = res.Documented[res.Declarations[2].Key()]
	assert.Equal(t, `"doc after comment"`, rec.Doc.Text())

	assert.Equal(t, Function, res.Declarations[0].Kind)
	assert.Equal(t, Method, res.Declarations[2].Kind)
	assert.Equal(t, 1, res.Declarations[0].Line())
	assert.Equal(t, 9, res.Declarations[2].Line())
}

func TestClassifyJavaScript(t *testing.T) {
	src := sourcetesting.Dedent(`
		/**
		 * Greets.
		 */
		function greet(name) {
		  return name;
		}

		// not a doc comment
		function plain() {}

		/** Exported. */
		export function exported() {}

		class K {
		  /** Method doc. */
		  run() {}

		  stop() {}
		}

		function* gen() {}
	`)
	res := classifySource(t, "javascript", src)
	p, _ := langprofile.Lookup("javascript")

	assert.Equal(t, []string{"greet", "plain", "exported", "run", "stop", "gen"}, names(t, p, res.Declarations))
	assert.Equal(t, []string{"plain", "stop", "gen"}, names(t, p, res.Undocumented))
	assert.Equal(t, Method, res.Declarations[3].Kind)
	assert.Equal(t, Function, res.Declarations[5].Kind)
}

func TestClassifyGo(t *testing.T) {
	src := sourcetesting.Dedent(`
		package p

		// Add sums a and b.
		// It never fails.
		func Add(a, b int) int { return a + b }

		func Sub(a, b int) int { return a - b }

		/* block */
		func (r *R) Read() {}
	`)
	res := classifySource(t, "go", src)
	p, _ := langprofile.Lookup("go")
	assert.Equal(t, []string{"Add", "Sub", "Read"}, names(t, p, res.Declarations))
	assert.Equal(t, []string{"Sub", "Read"}, names(t, p, res.Undocumented))
	rec := res.Documented[res.Declarations[0].Key()]
	assert.Equal(t, "// It never fails.", rec.Doc.Text())
	assert.Equal(t, "// Add sums a and b.", rec.DocStart.Text())
	assert.Equal(t, "// Add sums a and b.\n// It never fails.", rec.DocText())
	assert.Equal(t, Method, res.Declarations[2].Kind)
}

func TestClassifyGoDirectivesAndDetachedComments(t *testing.T) {
	src := sourcetesting.Dedent(`
		// Copyright 2024 The Authors.

		package p

		//go:noinline
		func hot() {}

		// Section: helpers.

		func helper() {}

		// Cold is rarely called.
		//go:noinline
		func Cold() {}

		var x = 1 // trailing
		func after() {}
	`)
	res := classifySource(t, "go", src)
	p, _ := langprofile.Lookup("go")
	assert.Equal(t, []string{"hot", "helper", "Cold", "after"}, names(t, p, res.Declarations))
	assert.Equal(t, []string{"hot", "helper", "after"}, names(t, p, res.Undocumented))

	rec := res.Documented[res.Declarations[2].Key()]
	assert.Equal(t, "// Cold is rarely called.", rec.DocText())
}

func TestClassifyDetachedBlockComment(t *testing.T) {
	src := sourcetesting.Dedent(`
		/** @license MIT */

		function f() {}

		/** Documented. */
		function g() {}
	`)
	res := classifySource(t, "javascript", src)
	p, _ := langprofile.Lookup("javascript")
	assert.Equal(t, []string{"f"}, names(t, p, res.Undocumented))
	rec := res.Documented[res.Declarations[1].Key()]
	assert.Equal(t, "/** Documented. */", rec.DocText())
	assert.Equal(t, rec.Doc.Key(), rec.DocStart.Key())
}

func TestClassifyJavaAndCpp(t *testing.T) {
	java := sourcetesting.Dedent(`
		class A {
		  /** Builds. */
		  A() {}

		  int size() { return 0; }
		}
	`)
	res := classifySource(t, "java", java)
	assert.Len(t, res.Declarations, 2)
	assert.Len(t, res.Undocumented, 1)
	assert.Equal(t, Method, res.Declarations[0].Kind)

	cpp := sourcetesting.Dedent(`
		/** Adds. */
		int add(int a, int b) { return a + b; }

		/// Maximum.
		template <typename T>
		T mx(T a, T b) { return a > b ? a : b; }

		void Foo::bar() {}
	`)
	res = classifySource(t, "cpp", cpp)
	p, _ := langprofile.Lookup("cpp")
	assert.Equal(t, []string{"add", "mx", "Foo::bar"}, names(t, p, res.Declarations))
	assert.Equal(t, []string{"Foo::bar"}, names(t, p, res.Undocumented))
	assert.Equal(t, Method, res.Declarations[2].Kind)
}

func TestClassifyRecordsInSourceOrder(t *testing.T) {
	res := classifySource(t, "python", "def a():\n    'doc'\n\ndef b():\n    pass\n")
	recs := res.Records()
	require.Len(t, recs, 2)
	assert.True(t, recs[0].HasDoc())
	assert.False(t, recs[1].HasDoc())
}

func TestClassifyEmptyAndBrokenSources(t *testing.T) {
	res := classifySource(t, "python", "")
	assert.Empty(t, res.Declarations)
	assert.Empty(t, res.Undocumented)

	// tree-sitter recovers; the intact function is still found.
	res = classifySource(t, "python", "def ok():\n    pass\n\ndef broken(:\n")
	assert.NotEmpty(t, res.Declarations)
}

func TestClassifyNilInputs(t *testing.T) {
	_, err := Classify(nil, nil)
	assert.Error(t, err)
}

// brokenProfile wraps a real profile but supplies a documented-declaration pattern that does not compile.
type brokenProfile struct {
	langprofile.Profile
}

func (b brokenProfile) DocumentedDeclarations() (*syntax.Pattern, error) {
	return syntax.CompilePattern(b.Language(), "(no_such_node_kind) @docstring")
}

func TestClassifyPatternErrorIsNotFatal(t *testing.T) {
	py, _ := langprofile.Lookup("python")
	res := classifyWith(t, brokenProfile{py}, "def f():\n    'doc'\n\ndef g():\n    pass\n")

	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], ErrPatternEvaluation))
	var pe *PatternError
	require.True(t, errors.As(res.Diagnostics[0], &pe))
	assert.Equal(t, "documented_declaration", pe.Pattern)

	// The fallback still finds f's docstring.
	assert.Len(t, res.Declarations, 2)
	assert.Len(t, res.Undocumented, 1)
}

// pairingProfile has a documented pattern that can capture more declarations than docs in one match.
type pairingProfile struct {
	langprofile.Profile
	source string
}

func (p pairingProfile) DocumentedDeclarations() (*syntax.Pattern, error) {
	return syntax.CompilePattern(p.Language(), p.source)
}

func (p pairingProfile) FallbackDoc(syntax.Node) (syntax.Node, bool) {
	return syntax.Node{}, false
}

func TestClassifyPairsAlignedPrefix(t *testing.T) {
	py, _ := langprofile.Lookup("python")
	src := "def a():\n    'doc a'\n\ndef b():\n    pass\n"

	// One match captures both functions but only one docstring: only a is paired.
	prof := pairingProfile{
		Profile: py,
		source:  `(module (function_definition body: (block . (expression_statement (string) @docstring))) @func (function_definition) @func)`,
	}
	res := classifyWith(t, prof, src)
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Documented, 1)
	rec := res.Documented[res.Declarations[0].Key()]
	assert.Equal(t, "'doc a'", rec.Doc.Text())
	assert.Len(t, res.Undocumented, 1)
}

func TestClassifyIgnoresPairingOutsideUniverse(t *testing.T) {
	py, _ := langprofile.Lookup("python")
	// The documented pattern captures a class as @func; classes are not in the universe.
	prof := pairingProfile{
		Profile: py,
		source:  `(class_definition body: (block . (expression_statement (string) @docstring))) @func`,
	}
	res := classifyWith(t, prof, "class C:\n    'doc'\n    def m(self):\n        pass\n")
	assert.Empty(t, res.Documented)
	assert.Len(t, res.Undocumented, 1)
}

// Positional pairing relies on captures within a match being returned in capture order. This checks the binding on a multi-capture pattern.
func TestCaptureOrderConformance(t *testing.T) {
	var lang *sitter.Language
	py, _ := langprofile.Lookup("python")
	lang = py.Language()

	src := "def a():\n    'A'\n\ndef b():\n    'B'\n\ndef c():\n    'C'\n"
	tree, err := syntax.Parse(context.Background(), []byte(src), lang)
	require.NoError(t, err)
	defer tree.Close()

	pat, err := syntax.CompilePattern(lang, `(module
		(function_definition body: (block . (expression_statement (string) @docstring))) @func
		.
		(function_definition body: (block . (expression_statement (string) @docstring))) @func)`)
	require.NoError(t, err)

	matches, err := tree.Evaluate(pat)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		funcs := m[langprofile.CaptureDeclaration]
		docs := m[langprofile.CaptureDocumentation]
		require.Len(t, funcs, 2)
		require.Len(t, docs, 2)
		for i := range funcs {
			assert.True(t, funcs[i].Span().Contains(docs[i].Span()), "doc %d not inside func %d", i, i)
		}
		assert.Less(t, funcs[0].Span().Start, funcs[1].Span().Start)
	}
}

func TestDeclKindString(t *testing.T) {
	assert.Equal(t, "function", Function.String())
	assert.Equal(t, "method", Method.String())
}
