package langprofile

import (
	"context"
	"testing"

	"github.com/codalotl/autodoc/internal/docformat"
	"github.com/codalotl/autodoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, p Profile, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), []byte(src), p.Language())
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

// firstDecl returns the first match of p's AllDeclarations pattern.
func firstDecl(t *testing.T, p Profile, tree *syntax.Tree) syntax.Node {
	t.Helper()
	pat, err := p.AllDeclarations()
	require.NoError(t, err)
	matches, err := tree.Evaluate(pat)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	return matches[0][CaptureDeclaration][0]
}

func TestLookup(t *testing.T) {
	for _, id := range []string{"python", "javascript", "typescript", "java", "go", "cpp"} {
		p, ok := Lookup(id)
		require.True(t, ok, id)
		assert.Equal(t, id, p.ID())
		assert.NotNil(t, p.Language())
		assert.Equal(t, 4, p.IndentWidth())
	}

	p, ok := Lookup("Python")
	require.True(t, ok)
	assert.Equal(t, "python", p.ID())

	_, ok = Lookup("cobol")
	assert.False(t, ok)
}

func TestForPath(t *testing.T) {
	tests := map[string]string{
		"a/b/c.py":    "python",
		"x.JS":        "javascript",
		"x.mjs":       "javascript",
		"comp.tsx":    "typescript",
		"Main.java":   "java",
		"main.go":     "go",
		"lib.hpp":     "cpp",
		"lib.h":       "cpp",
		"README.md":   "",
		"Makefile":    "",
		"archive.tar": "",
	}
	for path, want := range tests {
		p, ok := ForPath(path)
		if want == "" {
			assert.False(t, ok, path)
			assert.False(t, IsSupportedPath(path), path)
			continue
		}
		require.True(t, ok, path)
		assert.Equal(t, want, p.ID(), path)
	}
}

func TestIDsSorted(t *testing.T) {
	assert.Equal(t, []string{"cpp", "go", "java", "javascript", "python", "typescript"}, IDs())
}

func TestProfileAttributes(t *testing.T) {
	tests := []struct {
		id    string
		mode  InsertionMode
		style docformat.Style
	}{
		{"python", BodyRelative, docformat.StyleTripleQuoted},
		{"javascript", DeclarationRelative, docformat.StyleBlockAsterisk},
		{"typescript", DeclarationRelative, docformat.StyleBlockAsterisk},
		{"java", DeclarationRelative, docformat.StyleBlockAsterisk},
		{"go", DeclarationRelative, docformat.StyleLine},
		{"cpp", DeclarationRelative, docformat.StyleBlockAsterisk},
	}
	for _, tt := range tests {
		p, ok := Lookup(tt.id)
		require.True(t, ok)
		assert.Equal(t, tt.mode, p.InsertionMode(), tt.id)
		assert.Equal(t, tt.style, p.CommentStyle(), tt.id)
	}
	assert.Equal(t, "body-relative", BodyRelative.String())
	assert.Equal(t, "declaration-relative", DeclarationRelative.String())
}

func TestAllPatternsCompile(t *testing.T) {
	for _, id := range IDs() {
		p, _ := Lookup(id)
		all, err := p.AllDeclarations()
		require.NoError(t, err, id)
		assert.NotNil(t, all)

		documented, err := p.DocumentedDeclarations()
		require.NoError(t, err, id)
		assert.NotNil(t, documented)

		// Cached:
		again, err := p.AllDeclarations()
		require.NoError(t, err)
		assert.Same(t, all, again)
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		id   string
		src  string
		want string
	}{
		{"python", "def add(a, b):\n    return a + b\n", "add"},
		{"javascript", "function greet(name) {\n  return name;\n}\n", "greet"},
		{"typescript", "function greet(name: string): string {\n  return name;\n}\n", "greet"},
		{"java", "class A {\n  int size() { return 0; }\n}\n", "size"},
		{"go", "package p\n\nfunc (r *R) Read(b []byte) (int, error) { return 0, nil }\n", "Read"},
		{"cpp", "int add(int a, int b) {\n  return a + b;\n}\n", "add"},
		{"cpp", "const char *name() {\n  return \"x\";\n}\n", "name"},
		{"cpp", "int &ref() {\n  static int x;\n  return x;\n}\n", "ref"},
		{"cpp", "void Foo::bar() {\n}\n", "Foo::bar"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.want, func(t *testing.T) {
			p, _ := Lookup(tt.id)
			tree := parse(t, p, tt.src)
			decl := firstDecl(t, p, tree)
			name, ok := p.ResolveName(decl)
			require.True(t, ok)
			assert.Equal(t, tt.want, name.Text())
		})
	}
}

func TestPythonFallbackDoc(t *testing.T) {
	p, _ := Lookup("python")

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "docstring", src: "def f():\n    \"\"\"Doc.\"\"\"\n    return 1\n", want: `"""Doc."""`},
		{name: "after comment", src: "def f():\n    # note\n    'Doc.'\n    return 1\n", want: `'Doc.'`},
		{name: "concatenated", src: "def f():\n    'a' 'b'\n", want: `'a' 'b'`},
		{name: "no doc", src: "def f():\n    return 1\n", want: ""},
		{name: "string not first", src: "def f():\n    x = 1\n    'late'\n", want: ""},
		{name: "string expression with call", src: "def f():\n    'a'.join(x)\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, p, tt.src)
			doc, ok := p.FallbackDoc(firstDecl(t, p, tree))
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, doc.Text())
		})
	}
}

func TestCommentFallbackDoc(t *testing.T) {
	tests := []struct {
		name string
		id   string
		src  string
		want string
	}{
		{name: "jsdoc", id: "javascript", src: "/** Greets. */\nfunction g() {}\n", want: "/** Greets. */"},
		{name: "jsdoc on export", id: "javascript", src: "/** Greets. */\nexport function g() {}\n", want: "/** Greets. */"},
		{name: "plain block comment", id: "javascript", src: "/* not doc */\nfunction g() {}\n", want: ""},
		{name: "blank line between", id: "javascript", src: "/** Greets. */\n\nfunction g() {}\n", want: ""},
		{name: "javadoc", id: "java", src: "class A {\n  /** Size. */\n  int size() { return 0; }\n}\n", want: "/** Size. */"},
		{name: "go line doc", id: "go", src: "package p\n\n// F does things.\nfunc F() {}\n", want: "// F does things."},
		{name: "cpp triple slash", id: "cpp", src: "/// adds\nint add(int a, int b) { return a + b; }\n", want: "/// adds"},
		{name: "cpp template", id: "cpp", src: "/** max */\ntemplate <typename T>\nT mx(T a, T b) { return a; }\n", want: "/** max */"},
		{name: "cpp plain line comment", id: "cpp", src: "// adds\nint add(int a, int b) { return a + b; }\n", want: ""},
		{name: "go directive", id: "go", src: "package p\n\n//go:noinline\nfunc hot() {}\n", want: ""},
		{name: "go doc above directive", id: "go", src: "package p\n\n// hot is hot.\n//go:noinline\nfunc hot() {}\n", want: "// hot is hot."},
		{name: "go section comment", id: "go", src: "package p\n\n// Section: helpers.\n\nfunc helper() {}\n", want: ""},
		{name: "go trailing comment", id: "go", src: "package p\n\nvar x = 1 // note\nfunc f() {}\n", want: ""},
		{name: "license block", id: "javascript", src: "/** @license MIT */\n\nfunction f() {}\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := Lookup(tt.id)
			tree := parse(t, p, tt.src)
			doc, ok := p.FallbackDoc(firstDecl(t, p, tree))
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, doc.Text())
		})
	}
}

func TestAnchor(t *testing.T) {
	p, _ := Lookup("javascript")
	tree := parse(t, p, "export function g() {}\n")
	decl := firstDecl(t, p, tree)
	assert.Equal(t, "function_declaration", decl.Kind())
	anchor := p.Anchor(decl)
	assert.Equal(t, "export_statement", anchor.Kind())
	assert.Equal(t, 0, anchor.Span().Start)

	py, _ := Lookup("python")
	tree = parse(t, py, "def f():\n    pass\n")
	decl = firstDecl(t, py, tree)
	assert.Equal(t, decl.Key(), py.Anchor(decl).Key())
}

func TestAnchorClimbsOverDirectives(t *testing.T) {
	p, _ := Lookup("go")
	src := "package p\n\n// Hot.\n//go:noinline\n//go:nosplit\nfunc hot() {}\n"
	tree := parse(t, p, src)
	anchor := p.Anchor(firstDecl(t, p, tree))
	assert.Equal(t, "//go:noinline", anchor.Text())
	assert.Equal(t, 3, anchor.StartPoint().Row)

	// A blank line unbinds the directive.
	tree = parse(t, p, "package p\n\n//go:generate stringer\n\nfunc f() {}\n")
	decl := firstDecl(t, p, tree)
	assert.Equal(t, decl.Key(), p.Anchor(decl).Key())
}

func TestIsDocFor(t *testing.T) {
	p, _ := Lookup("go")
	tree := parse(t, p, "package p\n\n// Section.\n\n// F does things.\nfunc F() {}\n\n//go:noinline\nfunc G() {}\n")

	var comments []syntax.Node
	tree.Root().Walk(func(n syntax.Node) bool {
		if n.Kind() == "comment" {
			comments = append(comments, n)
		}
		return true
	})
	require.Len(t, comments, 3)

	pat, err := p.AllDeclarations()
	require.NoError(t, err)
	matches, err := tree.Evaluate(pat)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	f := matches[0][CaptureDeclaration][0]
	g := matches[1][CaptureDeclaration][0]

	assert.False(t, p.IsDocFor(comments[0], f))
	assert.True(t, p.IsDocFor(comments[1], f))
	assert.False(t, p.IsDocFor(comments[2], g))
	assert.False(t, p.IsDocFor(comments[1], g))
}

func TestDocGroupStart(t *testing.T) {
	tests := []struct {
		name string
		id   string
		src  string
		want string
	}{
		{name: "go group", id: "go", src: "package p\n\n// Foo computes.\n// It is safe.\nfunc Foo() {}\n", want: "// Foo computes."},
		{name: "go group after blank line", id: "go", src: "package p\n\n// Section.\n\n// Foo computes.\n// It is safe.\nfunc Foo() {}\n", want: "// Foo computes."},
		{name: "go group below directive", id: "go", src: "package p\n\n//go:generate x\n// Foo computes.\nfunc Foo() {}\n", want: "// Foo computes."},
		{name: "cpp triple slash", id: "cpp", src: "// plain\n/// one\n/// two\nint f() { return 0; }\n", want: "/// one"},
		{name: "block", id: "javascript", src: "/** a */\n/** b */\nfunction f() {}\n", want: "/** b */"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := Lookup(tt.id)
			tree := parse(t, p, tt.src)
			doc, ok := p.FallbackDoc(firstDecl(t, p, tree))
			require.True(t, ok)
			assert.Equal(t, tt.want, p.DocGroupStart(doc).Text())
		})
	}

	py, _ := Lookup("python")
	tree := parse(t, py, "def f():\n    'doc'\n")
	doc, ok := py.FallbackDoc(firstDecl(t, py, tree))
	require.True(t, ok)
	assert.Equal(t, doc.Key(), py.DocGroupStart(doc).Key())
}

func TestLocalBindings(t *testing.T) {
	tests := []struct {
		id   string
		src  string
		want []string
	}{
		{id: "python", src: "def f(a, b=1, *, c: int = 2):\n    x = a\n    y, z = 1, 2\n    for i in x:\n        pass\n    obj.attr = 3\n", want: []string{"a", "b", "c", "x", "y", "z", "i"}},
		{id: "javascript", src: "function f(a, b = 1) { const x = a; for (const k in b) {} }\n", want: []string{"a", "b", "x", "k"}},
		{id: "typescript", src: "function f(a: number, b?: string) { let x = a; }\n", want: []string{"a", "b", "x"}},
		{id: "java", src: "class A { int f(int a) { int x = a; for (String s : l) {} return x; } }\n", want: []string{"a", "x", "s"}},
		{id: "go", src: "package p\n\nfunc f(a int) { x := a; var y = x; for i, v := range l {} }\n", want: []string{"a", "x", "y", "i", "v"}},
		{id: "cpp", src: "int f(int a) { int x = a; int y; return x; }\n", want: []string{"a", "x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, _ := Lookup(tt.id)
			tree := parse(t, p, tt.src)
			pat, err := p.LocalBindings()
			require.NoError(t, err)
			matches, err := tree.EvaluateIn(pat, firstDecl(t, p, tree))
			require.NoError(t, err)

			var got []string
			for _, m := range matches {
				for _, n := range m[CaptureBinding] {
					got = append(got, n.Text())
				}
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestFirstBodyStatement(t *testing.T) {
	py, _ := Lookup("python")
	tree := parse(t, py, "def f(x):\n    # c\n    return x\n")
	stmt, ok := py.FirstBodyStatement(firstDecl(t, py, tree))
	require.True(t, ok)
	assert.Equal(t, "return_statement", stmt.Kind())

	js, _ := Lookup("javascript")
	tree = parse(t, js, "function g() { return 1; }\n")
	_, ok = js.FirstBodyStatement(firstDecl(t, js, tree))
	assert.False(t, ok)
}
