// Package classify maps a parsed syntax tree to the declarations that can carry documentation, and decides, per declaration, whether documentation is already present.
//
// Classification uses two sources of evidence. The profile's patterns are evaluated first: all declarations form the universe, and the documented-declaration pattern pairs
// declarations with their documentation. Then the profile's structural fallback is consulted for every declaration the pattern left undocumented, which covers grammar
// drift (ex: a comment node renamed in a newer grammar) and constructs the pattern does not express. A pattern that fails to compile or evaluate is not fatal: it counts as
// zero matches and is recorded in Result.Diagnostics.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/syntax"
)

// ErrPatternEvaluation is matched (via errors.Is) by every *PatternError.
var ErrPatternEvaluation = errors.New("pattern evaluation failed")

// PatternError records a profile pattern that could not be compiled or evaluated.
type PatternError struct {
	Profile string // profile id
	Pattern string // "all_declarations" or "documented_declaration"
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s %s pattern: %v", e.Profile, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPatternEvaluation) match.
func (e *PatternError) Is(target error) bool {
	return target == ErrPatternEvaluation
}

// DeclKind distinguishes free functions from methods.
type DeclKind int

const (
	Function DeclKind = iota
	Method
)

func (k DeclKind) String() string {
	if k == Method {
		return "method"
	}
	return "function"
}

// Declaration is one documentable function-like construct. Its identity is Node.Key().
type Declaration struct {
	Node syntax.Node
	Kind DeclKind
}

// Key returns the identity of d within its tree.
func (d Declaration) Key() syntax.Key {
	return d.Node.Key()
}

// Line returns the 1-based line d starts on.
func (d Declaration) Line() int {
	return d.Node.StartPoint().Row + 1
}

// Record is a declaration together with its existing documentation. Doc is the zero Node when the declaration is undocumented.
//
// Documentation written as line comments is one node per line: DocStart is the first node of the block and Doc the last (the one adjacent to the declaration). For
// every other convention DocStart == Doc.
type Record struct {
	Declaration Declaration
	Doc         syntax.Node
	DocStart    syntax.Node
}

// HasDoc reports whether r carries documentation.
func (r Record) HasDoc() bool {
	return !r.Doc.IsZero()
}

// DocText returns the full documentation block's source text, or "" if r is undocumented.
func (r Record) DocText() string {
	if !r.HasDoc() {
		return ""
	}
	if r.DocStart.IsZero() {
		return r.Doc.Text()
	}
	return r.DocStart.TextThrough(r.Doc)
}

// Result is the outcome of classifying one tree.
type Result struct {
	// Declarations is the deduplicated universe, in source order.
	Declarations []Declaration

	// Documented maps a declaration's key to its record. Every record in it has HasDoc() == true.
	Documented map[syntax.Key]Record

	// Undocumented is Declarations minus Documented, in source order.
	Undocumented []Declaration

	// Diagnostics holds non-fatal problems (each a *PatternError).
	Diagnostics []error
}

// Records returns a record for every declaration, in source order.
func (r Result) Records() []Record {
	out := make([]Record, 0, len(r.Declarations))
	for _, d := range r.Declarations {
		if rec, ok := r.Documented[d.Key()]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, Record{Declaration: d})
	}
	return out
}

// Classify classifies every declaration in tree according to profile. It only returns an error for unusable inputs; pattern problems are reported in Result.Diagnostics.
func Classify(tree *syntax.Tree, profile langprofile.Profile) (Result, error) {
	if tree == nil || profile == nil {
		return Result{}, errors.New("classify: nil tree or profile")
	}

	res := Result{Documented: make(map[syntax.Key]Record)}

	// Universe:
	universe := make(map[syntax.Key]Declaration)
	for _, caps := range evaluate(tree, profile, "all_declarations", profile.AllDeclarations, &res) {
		for _, n := range caps[langprofile.CaptureDeclaration] {
			if _, seen := universe[n.Key()]; seen {
				continue
			}
			d := Declaration{Node: n, Kind: kindOf(n)}
			universe[n.Key()] = d
			res.Declarations = append(res.Declarations, d)
		}
	}
	sort.SliceStable(res.Declarations, func(i, j int) bool {
		return res.Declarations[i].Node.Span().Start < res.Declarations[j].Node.Span().Start
	})

	// Pattern-detected documentation. Captures are paired positionally; a match with fewer docs than declarations pairs only the aligned prefix. The profile vets each
	// pairing, since a pattern cannot express line adjacency or directives.
	for _, caps := range evaluate(tree, profile, "documented_declaration", profile.DocumentedDeclarations, &res) {
		decls := caps[langprofile.CaptureDeclaration]
		docs := caps[langprofile.CaptureDocumentation]
		for i := 0; i < len(decls) && i < len(docs); i++ {
			d, ok := universe[decls[i].Key()]
			if !ok {
				continue
			}
			if _, already := res.Documented[d.Key()]; already {
				continue
			}
			if !profile.IsDocFor(docs[i], d.Node) {
				continue
			}
			res.Documented[d.Key()] = newRecord(profile, d, docs[i])
		}
	}

	// Structural fallback, then the complement.
	for _, d := range res.Declarations {
		if _, ok := res.Documented[d.Key()]; ok {
			continue
		}
		if doc, ok := profile.FallbackDoc(d.Node); ok {
			res.Documented[d.Key()] = newRecord(profile, d, doc)
			continue
		}
		res.Undocumented = append(res.Undocumented, d)
	}

	return res, nil
}

func newRecord(profile langprofile.Profile, d Declaration, doc syntax.Node) Record {
	return Record{Declaration: d, Doc: doc, DocStart: profile.DocGroupStart(doc)}
}

func evaluate(tree *syntax.Tree, profile langprofile.Profile, which string, compile func() (*syntax.Pattern, error), res *Result) []syntax.Captures {
	pat, err := compile()
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, &PatternError{Profile: profile.ID(), Pattern: which, Err: err})
		return nil
	}
	matches, err := tree.Evaluate(pat)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, &PatternError{Profile: profile.ID(), Pattern: which, Err: err})
		return nil
	}
	return matches
}

// containerKinds are node kinds whose function members are methods.
var containerKinds = map[string]bool{
	"class_definition":       true, // python
	"class_body":             true, // javascript, typescript, java
	"interface_body":         true,
	"enum_body":              true,
	"field_declaration_list": true, // cpp class/struct body
}

func kindOf(n syntax.Node) DeclKind {
	k := n.Kind()
	if strings.Contains(k, "method") || strings.Contains(k, "constructor") {
		return Method
	}
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if containerKinds[p.Kind()] {
			return Method
		}
		if p.Kind() == "function_definition" || p.Kind() == "function_declaration" {
			// Nested function.
			return Function
		}
	}
	if qualifiedName(n) {
		return Method
	}
	return Function
}

// qualifiedName reports out-of-class C++ member definitions (ex: `void Foo::bar() {}`).
func qualifiedName(n syntax.Node) bool {
	decl, ok := n.Field("declarator")
	if !ok {
		return false
	}
	inner, ok := decl.Field("declarator")
	return ok && inner.Kind() == "qualified_identifier"
}
