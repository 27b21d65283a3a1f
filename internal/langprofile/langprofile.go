// Package langprofile is the registry of languages autodoc can document. Each language is one Profile variant that bundles everything language-specific: the tree-sitter
// grammar, the patterns that find declarations and already-documented declarations, where new documentation goes (InsertionMode), how to find a declaration's name,
// a structural fallback for detecting existing documentation, and the comment convention used to render documentation.
//
// Adding a language means adding a Profile here; the classifier, planner, and applier never branch on language ids.
package langprofile

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codalotl/autodoc/internal/docformat"
	"github.com/codalotl/autodoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultIndentWidth is the indent unit used for body-relative documentation when a profile does not specify one.
const DefaultIndentWidth = 4

// InsertionMode says where new documentation is spliced relative to a declaration.
type InsertionMode int

const (
	// BodyRelative documentation is the first statement of the declaration's body (ex: Python docstrings).
	BodyRelative InsertionMode = iota

	// DeclarationRelative documentation is a comment block on the lines directly above the declaration.
	DeclarationRelative
)

// String returns the mode's name.
func (m InsertionMode) String() string {
	if m == BodyRelative {
		return "body-relative"
	}
	return "declaration-relative"
}

// Capture labels that patterns must use.
const (
	CaptureDeclaration   = "func"
	CaptureDocumentation = "docstring"
	CaptureBinding       = "name"
)

// Profile is the capability set of one language.
type Profile interface {
	// ID is the registry key (ex: "python").
	ID() string

	// Extensions lists file extensions (with leading dot, lower case) that select this profile.
	Extensions() []string

	// Language is the tree-sitter grammar.
	Language() *sitter.Language

	// AllDeclarations is the compiled pattern matching every documentable declaration, captured as CaptureDeclaration.
	AllDeclarations() (*syntax.Pattern, error)

	// DocumentedDeclarations is the compiled pattern matching declarations that carry documentation. Each match binds CaptureDeclaration and CaptureDocumentation.
	DocumentedDeclarations() (*syntax.Pattern, error)

	InsertionMode() InsertionMode

	// IndentWidth is the number of columns of one indentation level for body-relative documentation.
	IndentWidth() int

	// CommentStyle is the convention used to render documentation.
	CommentStyle() docformat.Style

	// ResolveName returns the node holding decl's name.
	ResolveName(decl syntax.Node) (syntax.Node, bool)

	// FallbackDoc structurally detects documentation that DocumentedDeclarations may have missed. It returns the documentation node if found.
	FallbackDoc(decl syntax.Node) (syntax.Node, bool)

	// IsDocFor reports whether doc, a node captured as documentation by DocumentedDeclarations, really documents decl. Comment languages require a doc-style comment
	// that is not a compiler directive, starts its own line, and ends on the line directly above decl's anchor.
	IsDocFor(doc, decl syntax.Node) bool

	// DocGroupStart returns the first node of the documentation block whose last node is doc. For line-comment conventions (one node per `//` line) it is the topmost
	// line-adjacent comment of the block; otherwise it is doc.
	DocGroupStart(doc syntax.Node) syntax.Node

	// Anchor returns the node whose first line documentation is placed above. It is decl, or a node that starts earlier on decl's behalf: a wrapper (ex: an export
	// statement or template declaration) or a directive comment bound to decl (ex: Go's `//go:noinline`).
	Anchor(decl syntax.Node) syntax.Node

	// LocalBindings is the compiled pattern matching identifiers bound inside a declaration (parameters, assignments, loop variables), captured as CaptureBinding.
	LocalBindings() (*syntax.Pattern, error)

	// FirstBodyStatement returns the first statement of decl's body. Only meaningful for BodyRelative profiles; others return false.
	FirstBodyStatement(decl syntax.Node) (syntax.Node, bool)
}

var (
	registryOnce sync.Once
	registry     map[string]Profile
	byExtension  map[string]Profile
)

func load() {
	registryOnce.Do(func() {
		registry = make(map[string]Profile)
		byExtension = make(map[string]Profile)
		for _, p := range builtinProfiles() {
			registry[p.ID()] = p
			for _, ext := range p.Extensions() {
				byExtension[ext] = p
			}
		}
	})
}

// Lookup returns the profile registered under id. ok is false for unsupported languages, which callers should treat as "skip this file", not as an error.
func Lookup(id string) (Profile, bool) {
	load()
	p, ok := registry[strings.ToLower(id)]
	return p, ok
}

// ForPath returns the profile selected by path's extension.
func ForPath(path string) (Profile, bool) {
	load()
	p, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return p, ok
}

// IDs returns the ids of all registered profiles, sorted.
func IDs() []string {
	load()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsSupportedPath reports whether some profile handles path.
func IsSupportedPath(path string) bool {
	_, ok := ForPath(path)
	return ok
}
