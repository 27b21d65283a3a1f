// Package rename plans identifier renames inside one declaration as byte-span edits against the original buffer.
//
// A rename is text substitution on syntax: every identifier node in the declaration that spells the old name becomes the new name, except member names (ex: the
// `name` in `obj.name`), keyword-argument labels, and the declaration's own name. Only names the declaration binds itself (parameters, assignments, loop variables;
// see langprofile.Profile.LocalBindings) are offered for renaming, and a rename never reaches outside the declaration's span.
package rename

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codalotl/autodoc/internal/docgen"
	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/patch"
	"github.com/codalotl/autodoc/internal/syntax"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNameInUse         = errors.New("new name is already used in the declaration")
	ErrNotBound          = errors.New("name is not bound in the declaration")
	ErrUnsafe            = errors.New("name is used in a construct that cannot be renamed by substitution")
)

// IdentifierRename is one requested rename within a declaration.
type IdentifierRename struct {
	From string
	To   string

	// On input, should be nil. Set on output to the reason the rename could not be planned.
	Err error
}

// memberSlots maps a parent node kind to the field whose identifier child is a member or label name rather than a variable reference.
var memberSlots = map[string]string{
	"attribute":         "attribute", // python obj.name
	"keyword_argument":  "name",      // python f(name=...)
	"field_access":      "field",     // java obj.name
	"method_invocation": "name",      // java obj.name()
}

// shorthandKinds are nodes that both name a property and reference a variable (ex: JavaScript `{name}`). Substituting their text would change the property name.
var shorthandKinds = map[string]bool{
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
}

// Renamer plans renames inside one declaration.
type Renamer struct {
	tree    *syntax.Tree
	profile langprofile.Profile
	decl    syntax.Node
	name    syntax.Node // decl's own name; never renamed
}

// New returns a renamer for decl, a declaration node of tree.
func New(tree *syntax.Tree, profile langprofile.Profile, decl syntax.Node) *Renamer {
	name, _ := profile.ResolveName(decl)
	return &Renamer{tree: tree, profile: profile, decl: decl, name: name}
}

// Bindings returns the distinct names bound inside the declaration, in source order of their first binding. The declaration's own name is not included.
func (r *Renamer) Bindings() ([]string, error) {
	pat, err := r.profile.LocalBindings()
	if err != nil {
		return nil, err
	}
	matches, err := r.tree.EvaluateIn(pat, r.decl)
	if err != nil {
		return nil, err
	}

	var nodes []syntax.Node
	for _, m := range matches {
		nodes = append(nodes, m[langprofile.CaptureBinding]...)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Span().Start < nodes[j].Span().Start
	})

	seen := map[string]bool{r.name.Text(): true}
	var names []string
	for _, n := range nodes {
		if seen[n.Text()] {
			continue
		}
		seen[n.Text()] = true
		names = append(names, n.Text())
	}
	return names, nil
}

// Plan returns the edits that rename req.From to req.To throughout the declaration, sorted by position. On failure it sets req.Err and returns it.
//
// A rename fails if either name is not an identifier, From is not bound in the declaration, To already appears in it, or From occurs in a shorthand construct.
func (r *Renamer) Plan(req *IdentifierRename) (patch.Batch, error) {
	if err := r.plan(req); err != nil {
		req.Err = err
		return nil, err
	}
	var batch patch.Batch
	for _, n := range r.references(req.From) {
		batch = append(batch, patch.Edit{Start: n.Span().Start, End: n.Span().End, Text: req.To})
	}
	return batch, nil
}

func (r *Renamer) plan(req *IdentifierRename) error {
	if !docgen.IsIdentifier(req.From) {
		return fmt.Errorf("%w in From: %q", ErrInvalidIdentifier, req.From)
	}
	if !docgen.IsIdentifier(req.To) || req.To == req.From {
		return fmt.Errorf("%w in To: %q", ErrInvalidIdentifier, req.To)
	}

	bound, err := r.Bindings()
	if err != nil {
		return err
	}
	if !containsString(bound, req.From) {
		return fmt.Errorf("%w: %q", ErrNotBound, req.From)
	}

	var failure error
	r.decl.Walk(func(n syntax.Node) bool {
		if failure != nil {
			return false
		}
		kind := n.Kind()
		if !strings.HasSuffix(kind, "identifier") && !strings.HasSuffix(kind, "identifier_pattern") {
			return true
		}
		switch text := n.Text(); {
		case text == req.To:
			failure = fmt.Errorf("%w: %q", ErrNameInUse, req.To)
		case text == req.From && shorthandKinds[kind]:
			failure = fmt.Errorf("%w: %q at line %d", ErrUnsafe, req.From, n.StartPoint().Row+1)
		}
		return true
	})
	return failure
}

// references returns the identifier nodes in the declaration that refer to the variable name, in source order.
func (r *Renamer) references(name string) []syntax.Node {
	var out []syntax.Node
	r.decl.Walk(func(n syntax.Node) bool {
		if n.Kind() != "identifier" || n.Text() != name {
			return true
		}
		if !r.name.IsZero() && n.Key() == r.name.Key() {
			return true
		}
		if isMemberSlot(n) {
			return true
		}
		out = append(out, n)
		return true
	})
	return out
}

func isMemberSlot(n syntax.Node) bool {
	parent, ok := n.Parent()
	if !ok {
		return false
	}
	field, ok := memberSlots[parent.Kind()]
	if !ok {
		return false
	}
	child, ok := parent.Field(field)
	return ok && child.Key() == n.Key()
}

// Renameable reports whether name may be offered for renaming: dunder names, the blank identifier, and receiver conventions (self, cls, this) are left alone.
func Renameable(name string) bool {
	if name == "" || name == "_" || strings.HasPrefix(name, "__") {
		return false
	}
	switch name {
	case "self", "cls", "this":
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
