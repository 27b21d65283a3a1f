package langprofile

import (
	"strings"
	"sync"

	"github.com/codalotl/autodoc/internal/docformat"
	"github.com/codalotl/autodoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func builtinProfiles() []Profile {
	return []Profile{
		newPython(),
		newCommentProfile(commentProfileConfig{
			id:           "javascript",
			extensions:   []string{".js", ".mjs", ".cjs", ".jsx"},
			language:     javascript.GetLanguage(),
			all:          jsAllDeclarations,
			documented:   jsDocumentedDeclarations,
			bindings:     jsLocalBindings,
			style:        docformat.StyleBlockAsterisk,
			docPrefixes:  []string{"/**"},
			wrapperKinds: []string{"export_statement"},
		}),
		newCommentProfile(commentProfileConfig{
			id:         "typescript",
			extensions: []string{".ts", ".tsx"},
			language:   typescript.GetLanguage(),
			all:        jsAllDeclarations,
			documented: jsDocumentedDeclarations,
			bindings: `
				(variable_declarator name: (identifier) @name)
				(required_parameter pattern: (identifier) @name)
				(optional_parameter pattern: (identifier) @name)
				(for_in_statement left: (identifier) @name)
			`,
			style:        docformat.StyleBlockAsterisk,
			docPrefixes:  []string{"/**"},
			wrapperKinds: []string{"export_statement"},
		}),
		newCommentProfile(commentProfileConfig{
			id:         "java",
			extensions: []string{".java"},
			language:   java.GetLanguage(),
			all:        `[(method_declaration) (constructor_declaration)] @func`,
			documented: `((block_comment) @docstring . [(method_declaration) (constructor_declaration)] @func (#match? @docstring "^/\\*\\*"))`,
			bindings: `
				(formal_parameter name: (identifier) @name)
				(variable_declarator name: (identifier) @name)
				(enhanced_for_statement name: (identifier) @name)
			`,
			style:       docformat.StyleBlockAsterisk,
			docPrefixes: []string{"/**"},
		}),
		newCommentProfile(commentProfileConfig{
			id:         "go",
			extensions: []string{".go"},
			language:   golang.GetLanguage(),
			all:        `[(function_declaration) (method_declaration)] @func`,
			documented: `((comment) @docstring . [(function_declaration) (method_declaration)] @func (#match? @docstring "^//"))`,
			bindings: `
				(parameter_declaration name: (identifier) @name)
				(short_var_declaration left: (expression_list (identifier) @name))
				(var_spec name: (identifier) @name)
				(range_clause left: (expression_list (identifier) @name))
			`,
			style:             docformat.StyleLine,
			docPrefixes:       []string{"//"},
			directivePrefixes: []string{"//go:", "//line ", "//export ", "//nolint", "//+build", "//lint:"},
		}),
		newCommentProfile(commentProfileConfig{
			id:         "cpp",
			extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx", ".h"},
			language:   cpp.GetLanguage(),
			all:        `(function_definition) @func`,
			documented: `
				((comment) @docstring . (function_definition) @func (#match? @docstring "^(/\\*\\*|///)"))
				((comment) @docstring . (template_declaration (function_definition) @func) (#match? @docstring "^(/\\*\\*|///)"))
			`,
			bindings: `
				(parameter_declaration declarator: (identifier) @name)
				(optional_parameter_declaration declarator: (identifier) @name)
				(init_declarator declarator: (identifier) @name)
				(declaration declarator: (identifier) @name)
			`,
			style:        docformat.StyleBlockAsterisk,
			docPrefixes:  []string{"/**", "///"},
			wrapperKinds: []string{"template_declaration"},
			resolveName:  declaratorName,
		}),
	}
}

const jsAllDeclarations = `[(function_declaration) (generator_function_declaration) (method_definition)] @func`

const jsDocumentedDeclarations = `
((comment) @docstring . [(function_declaration) (generator_function_declaration) (method_definition)] @func (#match? @docstring "^/\\*\\*"))
((comment) @docstring . (export_statement declaration: [(function_declaration) (generator_function_declaration)] @func) (#match? @docstring "^/\\*\\*"))
`

const jsLocalBindings = `
(variable_declarator name: (identifier) @name)
(formal_parameters (identifier) @name)
(formal_parameters (assignment_pattern left: (identifier) @name))
(for_in_statement left: (identifier) @name)
`

// patterns lazily compiles and caches a profile's patterns. Compiled patterns are shared by all goroutines.
type patterns struct {
	lang    *sitter.Language
	allSrc  string
	docSrc  string
	bindSrc string

	allOnce    sync.Once
	all        *syntax.Pattern
	allErr     error
	docOnce    sync.Once
	documented *syntax.Pattern
	docErr     error
	bindOnce   sync.Once
	bindings   *syntax.Pattern
	bindErr    error
}

func (p *patterns) AllDeclarations() (*syntax.Pattern, error) {
	p.allOnce.Do(func() {
		p.all, p.allErr = syntax.CompilePattern(p.lang, p.allSrc)
	})
	return p.all, p.allErr
}

func (p *patterns) DocumentedDeclarations() (*syntax.Pattern, error) {
	p.docOnce.Do(func() {
		p.documented, p.docErr = syntax.CompilePattern(p.lang, p.docSrc)
	})
	return p.documented, p.docErr
}

func (p *patterns) LocalBindings() (*syntax.Pattern, error) {
	p.bindOnce.Do(func() {
		p.bindings, p.bindErr = syntax.CompilePattern(p.lang, p.bindSrc)
	})
	return p.bindings, p.bindErr
}

//
// Python
//

type pythonProfile struct {
	*patterns
}

func newPython() *pythonProfile {
	lang := python.GetLanguage()
	return &pythonProfile{patterns: &patterns{
		lang:   lang,
		allSrc: `(function_definition) @func`,
		docSrc: `(function_definition body: (block . (expression_statement (string) @docstring))) @func`,
		bindSrc: `
			(parameters (identifier) @name)
			(default_parameter name: (identifier) @name)
			(typed_parameter (identifier) @name)
			(typed_default_parameter name: (identifier) @name)
			(assignment left: (identifier) @name)
			(assignment left: (pattern_list (identifier) @name))
			(augmented_assignment left: (identifier) @name)
			(for_statement left: (identifier) @name)
			(for_statement left: (pattern_list (identifier) @name))
		`,
	}}
}

func (p *pythonProfile) ID() string                    { return "python" }
func (p *pythonProfile) Extensions() []string          { return []string{".py"} }
func (p *pythonProfile) Language() *sitter.Language    { return p.lang }
func (p *pythonProfile) InsertionMode() InsertionMode  { return BodyRelative }
func (p *pythonProfile) IndentWidth() int              { return DefaultIndentWidth }
func (p *pythonProfile) CommentStyle() docformat.Style { return docformat.StyleTripleQuoted }
func (p *pythonProfile) Anchor(decl syntax.Node) syntax.Node {
	return decl
}

// IsDocFor only requires doc to lie inside decl; position within the body is the pattern's and FallbackDoc's concern.
func (p *pythonProfile) IsDocFor(doc, decl syntax.Node) bool {
	return decl.Span().Contains(doc.Span())
}

func (p *pythonProfile) DocGroupStart(doc syntax.Node) syntax.Node {
	return doc
}

func (p *pythonProfile) ResolveName(decl syntax.Node) (syntax.Node, bool) {
	return nameField(decl)
}

// FirstBodyStatement skips comments: Python does not count them as statements, so a docstring after a leading comment is still the docstring.
func (p *pythonProfile) FirstBodyStatement(decl syntax.Node) (syntax.Node, bool) {
	body, ok := decl.Field("body")
	if !ok {
		return syntax.Node{}, false
	}
	for _, stmt := range body.NamedChildren() {
		if stmt.Kind() == "comment" {
			continue
		}
		return stmt, true
	}
	return syntax.Node{}, false
}

// FallbackDoc reports a docstring when the first body statement is a bare string literal expression.
func (p *pythonProfile) FallbackDoc(decl syntax.Node) (syntax.Node, bool) {
	stmt, ok := p.FirstBodyStatement(decl)
	if !ok || stmt.Kind() != "expression_statement" {
		return syntax.Node{}, false
	}
	children := stmt.NamedChildren()
	if len(children) != 1 {
		return syntax.Node{}, false
	}
	switch children[0].Kind() {
	case "string", "concatenated_string":
		return children[0], true
	}
	return syntax.Node{}, false
}

//
// Comment-convention languages (documentation is a comment block above the declaration).
//

type commentProfileConfig struct {
	id                string
	extensions        []string
	language          *sitter.Language
	all               string
	documented        string
	bindings          string
	style             docformat.Style
	docPrefixes       []string // a comment is documentation if it starts with one of these
	directivePrefixes []string // tool directives (ex: "//go:"): never documentation, and kept between the documentation and the declaration
	wrapperKinds      []string // parents that start on the declaration's behalf (ex: export_statement)
	resolveName       func(syntax.Node) (syntax.Node, bool)
}

type commentProfile struct {
	*patterns
	cfg commentProfileConfig
}

func newCommentProfile(cfg commentProfileConfig) *commentProfile {
	if cfg.resolveName == nil {
		cfg.resolveName = nameField
	}
	return &commentProfile{
		patterns: &patterns{lang: cfg.language, allSrc: cfg.all, docSrc: cfg.documented, bindSrc: cfg.bindings},
		cfg:      cfg,
	}
}

func (p *commentProfile) ID() string                    { return p.cfg.id }
func (p *commentProfile) Extensions() []string          { return p.cfg.extensions }
func (p *commentProfile) Language() *sitter.Language    { return p.lang }
func (p *commentProfile) InsertionMode() InsertionMode  { return DeclarationRelative }
func (p *commentProfile) IndentWidth() int              { return DefaultIndentWidth }
func (p *commentProfile) CommentStyle() docformat.Style { return p.cfg.style }

func (p *commentProfile) ResolveName(decl syntax.Node) (syntax.Node, bool) {
	return p.cfg.resolveName(decl)
}

func (p *commentProfile) FirstBodyStatement(decl syntax.Node) (syntax.Node, bool) {
	return syntax.Node{}, false
}

// Anchor climbs through wrapper parents (ex: `export function f`) so documentation lands above the whole construct, then over directive comments on the lines directly
// above, so documentation lands above those too.
func (p *commentProfile) Anchor(decl syntax.Node) syntax.Node {
	anchor := decl
	for {
		parent, ok := anchor.Parent()
		if !ok || !containsString(p.cfg.wrapperKinds, parent.Kind()) {
			break
		}
		anchor = parent
	}
	for {
		prev, ok := anchor.PrevNamedSibling()
		if !ok || !p.isDirective(prev) || !directlyAbove(prev, anchor) || trailing(prev) {
			return anchor
		}
		anchor = prev
	}
}

// IsDocFor requires doc to be a doc-style comment on its own line(s), ending on the line directly above decl's anchor. Blank-line-separated comments (section
// headers, license blocks) and directives are not documentation.
func (p *commentProfile) IsDocFor(doc, decl syntax.Node) bool {
	if !p.isDocComment(doc) {
		return false
	}
	return directlyAbove(doc, p.Anchor(decl))
}

// FallbackDoc reports the comment directly above the anchor when IsDocFor accepts it.
func (p *commentProfile) FallbackDoc(decl syntax.Node) (syntax.Node, bool) {
	prev, ok := p.Anchor(decl).PrevNamedSibling()
	if !ok || !p.IsDocFor(prev, decl) {
		return syntax.Node{}, false
	}
	return prev, true
}

// DocGroupStart extends a line-comment doc (ex: Go's `//` lines, one node per line) back over the line-adjacent comments that belong to the same block. It stops at
// directives, trailing comments, and comments with a different marker.
func (p *commentProfile) DocGroupStart(doc syntax.Node) syntax.Node {
	prefix := lineCommentPrefix(doc.Text())
	if prefix == "" {
		return doc
	}
	first := doc
	for {
		prev, ok := first.PrevNamedSibling()
		if !ok || prev.Kind() != doc.Kind() || lineCommentPrefix(prev.Text()) != prefix {
			return first
		}
		if !directlyAbove(prev, first) || p.isDirective(prev) || trailing(prev) {
			return first
		}
		first = prev
	}
}

func (p *commentProfile) isDocComment(n syntax.Node) bool {
	if !isComment(n) || p.isDirective(n) || trailing(n) {
		return false
	}
	text := n.Text()
	for _, prefix := range p.cfg.docPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func (p *commentProfile) isDirective(n syntax.Node) bool {
	if !isComment(n) {
		return false
	}
	text := n.Text()
	for _, prefix := range p.cfg.directivePrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func isComment(n syntax.Node) bool {
	return strings.Contains(n.Kind(), "comment")
}

// directlyAbove reports whether upper ends on the line immediately before lower starts.
func directlyAbove(upper, lower syntax.Node) bool {
	return upper.Span().End <= lower.Span().Start && upper.EndPoint().Row+1 == lower.StartPoint().Row
}

// trailing reports whether comment n follows code on its first line (ex: `x := 1 // note`).
func trailing(n syntax.Node) bool {
	prev, ok := n.PrevNamedSibling()
	return ok && prev.EndPoint().Row == n.StartPoint().Row
}

func lineCommentPrefix(s string) string {
	for _, prefix := range []string{"///", "//"} {
		if strings.HasPrefix(s, prefix) {
			return prefix
		}
	}
	return ""
}

//
// Name-resolution strategies.
//

// nameField resolves the name from the grammar's `name` field (Python, JavaScript, Java, Go).
func nameField(decl syntax.Node) (syntax.Node, bool) {
	return decl.Field("name")
}

var declaratorNameKinds = []string{"identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name", "template_function"}

// declaratorName resolves names in declarator-style grammars (C/C++): follow `declarator` fields (function_declarator, pointer_declarator, ...) down to the identifier.
func declaratorName(decl syntax.Node) (syntax.Node, bool) {
	cur := decl
	for depth := 0; depth < 8; depth++ {
		next, ok := cur.Field("declarator")
		if !ok {
			// reference_declarator and friends hold their inner declarator as a plain child.
			for _, child := range cur.NamedChildren() {
				if strings.HasSuffix(child.Kind(), "declarator") || containsString(declaratorNameKinds, child.Kind()) {
					next, ok = child, true
					break
				}
			}
		}
		if !ok {
			break
		}
		if containsString(declaratorNameKinds, next.Kind()) {
			return next, true
		}
		cur = next
	}

	for _, child := range cur.NamedChildren() {
		if child.Kind() == "identifier" {
			return child, true
		}
	}
	return syntax.Node{}, false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
