package rename

import (
	"context"
	"testing"

	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/patch"
	"github.com/codalotl/autodoc/internal/sourcetesting"
	"github.com/codalotl/autodoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRenamer parses src and returns a renamer for its first declaration.
func newRenamer(t *testing.T, profileID, src string) *Renamer {
	t.Helper()
	p, ok := langprofile.Lookup(profileID)
	require.True(t, ok)
	tree, err := syntax.Parse(context.Background(), []byte(src), p.Language())
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	pat, err := p.AllDeclarations()
	require.NoError(t, err)
	matches, err := tree.Evaluate(pat)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	return New(tree, p, matches[0][langprofile.CaptureDeclaration][0])
}

func renameIn(t *testing.T, profileID, src, from, to string) string {
	t.Helper()
	r := newRenamer(t, profileID, src)
	req := IdentifierRename{From: from, To: to}
	batch, err := r.Plan(&req)
	require.NoError(t, err)
	require.NoError(t, req.Err)
	out, err := patch.Apply([]byte(src), batch)
	require.NoError(t, err)
	return string(out)
}

func TestBindings(t *testing.T) {
	src := sourcetesting.Dedent(`
		def total(items, d=0):
		    s = d
		    for it in items:
		        s += it.price
		    total = s
		    return s
	`)
	r := newRenamer(t, "python", src)
	names, err := r.Bindings()
	require.NoError(t, err)
	assert.Equal(t, []string{"items", "d", "s", "it"}, names)
}

func TestPlanPython(t *testing.T) {
	src := sourcetesting.Dedent(`
		def f(d, key):
		    d = d.get(key, d)
		    g(d=d)
		    return obj.d + d
	`)
	want := sourcetesting.Dedent(`
		def f(data, key):
		    data = data.get(key, data)
		    g(d=data)
		    return obj.d + data
	`)
	assert.Equal(t, want, renameIn(t, "python", src, "d", "data"))
}

func TestPlanOtherLanguages(t *testing.T) {
	tests := []struct {
		id   string
		src  string
		from string
		to   string
		want string
	}{
		{
			id:   "javascript",
			src:  "function f(a) { const b = a.a + a; return b; }\n",
			from: "a", to: "amount",
			want: "function f(amount) { const b = amount.a + amount; return b; }\n",
		},
		{
			id:   "go",
			src:  "package p\n\nfunc f(n int) int { v := n * 2; return v + n }\n",
			from: "v", to: "doubled",
			want: "package p\n\nfunc f(n int) int { doubled := n * 2; return doubled + n }\n",
		},
		{
			id:   "java",
			src:  "class A { int f(int n) { int q = n; return this.n + q; } }\n",
			from: "n", to: "count",
			want: "class A { int f(int count) { int q = count; return this.n + q; } }\n",
		},
		{
			id:   "cpp",
			src:  "int f(int n) { int q = n; return q; }\n",
			from: "q", to: "copy",
			want: "int f(int n) { int copy = n; return copy; }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, renameIn(t, tt.id, tt.src, tt.from, tt.to))
		})
	}
}

func TestPlanKeepsDeclarationName(t *testing.T) {
	src := "def f(x):\n    f = x\n    return f\n"
	r := newRenamer(t, "python", src)

	// The declaration's own name is not a binding to offer, even when assigned to.
	names, err := r.Bindings()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)

	req := IdentifierRename{From: "f", To: "g"}
	_, err = r.Plan(&req)
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestPlanFailures(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		src     string
		from    string
		to      string
		wantErr error
	}{
		{name: "invalid to", profile: "python", src: "def f(d):\n    return d\n", from: "d", to: "not valid", wantErr: ErrInvalidIdentifier},
		{name: "same name", profile: "python", src: "def f(d):\n    return d\n", from: "d", to: "d", wantErr: ErrInvalidIdentifier},
		{name: "invalid from", profile: "python", src: "def f(d):\n    return d\n", from: "1d", to: "data", wantErr: ErrInvalidIdentifier},
		{name: "not bound", profile: "python", src: "def f(d):\n    return e\n", from: "e", to: "data", wantErr: ErrNotBound},
		{name: "name in use", profile: "python", src: "def f(d, data):\n    return d + data\n", from: "d", to: "data", wantErr: ErrNameInUse},
		{name: "shorthand property", profile: "javascript", src: "function f(a) { return {a}; }\n", from: "a", to: "amount", wantErr: ErrUnsafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenamer(t, tt.profile, tt.src)
			req := IdentifierRename{From: tt.from, To: tt.to}
			batch, err := r.Plan(&req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, req.Err, tt.wantErr)
			assert.Empty(t, batch)
		})
	}
}

func TestRenameable(t *testing.T) {
	for _, name := range []string{"x", "data", "_private"} {
		assert.True(t, Renameable(name), name)
	}
	for _, name := range []string{"", "_", "__init__", "__x", "self", "cls", "this"} {
		assert.False(t, Renameable(name), name)
	}
}
