// Package autodoc runs the documentation pipeline over source files: parse, classify, generate, plan, apply, and write (or return) the result.
//
// Work within one file is sequential and planned entirely against the original buffer; all of a file's edits are committed by a single patch.Apply. Problems
// are reported as Diagnostics scoped to a file or a declaration and never stop other files. Only I/O failures make a run fail (see Summary.Failed).
package autodoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/codalotl/autodoc/internal/classify"
	"github.com/codalotl/autodoc/internal/docgen"
	"github.com/codalotl/autodoc/internal/editplan"
	"github.com/codalotl/autodoc/internal/health"
	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/codalotl/autodoc/internal/patch"
	"github.com/codalotl/autodoc/internal/rename"
	"github.com/codalotl/autodoc/internal/syntax"
)

// Options configures ProcessFile and DocumentSource.
type Options struct {
	// Generator produces and evaluates documentation. Required.
	Generator docgen.Generator

	// Style is passed to the generator. Empty means docgen.StyleGoogle.
	Style docgen.Style

	// InPlace writes changed files back to disk. Otherwise results are only returned.
	InPlace bool

	// OverwriteExisting evaluates existing documentation and regenerates the documentation the generator judges poor.
	OverwriteExisting bool

	// WrapWidth reflows generated documentation to this display width. Zero disables reflow.
	WrapWidth int

	// IndentWidth overrides each profile's indent unit for body-relative documentation. Zero keeps the profile's.
	IndentWidth int

	// Refactor asks the generator (which must implement docgen.Namer) to judge each declaration's name and the names it binds. Poor variable names are renamed within
	// the declaration; poor function names are only reported as progress, since their callers live elsewhere.
	Refactor bool

	health.Ctx
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path     string
	Language string // profile id; empty if unsupported

	Original []byte
	Updated  []byte      // equal to Original when nothing changed
	Edits    patch.Batch // committed edits, sorted by position
	Written  bool        // Updated was written to Path

	// Progress holds one line per declaration the generator was asked about, in source order.
	Progress []string

	Diagnostics []Diagnostic
}

// Changed reports whether the file's content differs after processing.
func (r FileResult) Changed() bool {
	return len(r.Edits) > 0 && string(r.Original) != string(r.Updated)
}

// Failed reports whether the file could not be read or written.
func (r FileResult) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Kind == IOFailure {
			return true
		}
	}
	return false
}

// ProcessFile reads path, documents it, and (if opts.InPlace and something changed) writes it back atomically.
func ProcessFile(ctx context.Context, path string, opts Options) FileResult {
	profile, ok := langprofile.ForPath(path)
	if !ok {
		res := FileResult{Path: path}
		res.addDiagnostic(opts, 0, UnsupportedLanguage, errors.New("no language profile for this file extension"))
		return res
	}

	src, err := os.ReadFile(path)
	if err != nil {
		res := FileResult{Path: path, Language: profile.ID()}
		res.addDiagnostic(opts, 0, IOFailure, err)
		return res
	}

	res := documentSource(ctx, path, src, profile, opts)
	if opts.InPlace && res.Changed() {
		if err := writeFileAtomic(path, res.Updated); err != nil {
			res.addDiagnostic(opts, 0, IOFailure, err)
		} else {
			res.Written = true
			opts.Log("wrote file", "path", path, "edits", len(res.Edits))
		}
	}
	return res
}

// DocumentSource documents src as if it were the contents of path. The language is chosen by path's extension. Nothing is written.
func DocumentSource(ctx context.Context, path string, src []byte, opts Options) FileResult {
	profile, ok := langprofile.ForPath(path)
	if !ok {
		res := FileResult{Path: path, Original: src, Updated: src}
		res.addDiagnostic(opts, 0, UnsupportedLanguage, errors.New("no language profile for this file extension"))
		return res
	}
	return documentSource(ctx, path, src, profile, opts)
}

func documentSource(ctx context.Context, path string, src []byte, profile langprofile.Profile, opts Options) FileResult {
	res := FileResult{Path: path, Language: profile.ID(), Original: src, Updated: src}
	if opts.Generator == nil {
		res.addDiagnostic(opts, 0, GenerationFailure, errors.New("no generator configured"))
		return res
	}
	style := opts.Style
	if style == "" {
		style = docgen.StyleGoogle
	}

	tree, err := syntax.Parse(ctx, src, profile.Language())
	if err != nil {
		res.addDiagnostic(opts, 0, ParseFailure, err)
		return res
	}
	defer tree.Close()
	if tree.Root().HasError() {
		// Tree-sitter recovers from errors; declarations outside the damaged region are still processed.
		res.addDiagnostic(opts, 0, ParseFailure, errors.New("source has syntax errors; some declarations may be skipped"))
	}

	classified, err := classify.Classify(tree, profile)
	if err != nil {
		res.addDiagnostic(opts, 0, PatternEvaluation, err)
		return res
	}
	for _, d := range classified.Diagnostics {
		res.addDiagnostic(opts, 0, PatternEvaluation, d)
	}

	planner := editplan.New(profile, tree.Source())
	planner.WrapWidth = opts.WrapWidth
	planner.IndentWidth = opts.IndentWidth

	var namer docgen.Namer
	if opts.Refactor {
		var ok bool
		if namer, ok = opts.Generator.(docgen.Namer); !ok {
			res.addDiagnostic(opts, 0, GenerationFailure, errors.New("generator cannot judge names; refactoring skipped"))
		}
	}

	var batch patch.Batch
	for _, rec := range classified.Records() {
		if err := ctx.Err(); err != nil {
			res.addDiagnostic(opts, 0, GenerationFailure, fmt.Errorf("stopped: %w", err))
			break
		}
		if !rec.HasDoc() || opts.OverwriteExisting {
			if edit, ok := res.planRecord(ctx, planner, profile, rec, style, opts); ok {
				batch = append(batch, edit)
			}
		}
		if namer != nil {
			batch = res.planRenames(ctx, tree, planner, profile, namer, rec, batch, opts)
		}
	}
	if len(batch) == 0 {
		return res
	}

	sorted, err := patch.Sorted(src, batch)
	if err == nil {
		res.Updated, err = patch.Apply(src, sorted)
	}
	if err != nil {
		kind := EditConflict
		if errors.Is(err, patch.ErrOutOfRange) {
			kind = ParseFailure
		}
		res.Updated = src
		res.addDiagnostic(opts, 0, kind, err)
		return res
	}
	res.Edits = sorted
	return res
}

// planRecord generates (or, for documented declarations, evaluates and maybe regenerates) documentation for rec and returns its edit. ok is false when the declaration
// is skipped; the reason is recorded as a diagnostic unless the existing documentation was judged good.
func (res *FileResult) planRecord(ctx context.Context, planner *editplan.Planner, profile langprofile.Profile, rec classify.Record, style docgen.Style, opts Options) (patch.Edit, bool) {
	decl := rec.Declaration
	line := decl.Line()

	name, err := planner.Name(decl.Node)
	if err != nil {
		res.addDiagnostic(opts, line, MissingName, err)
		return patch.Edit{}, false
	}
	snippet := docgen.Snippet{Language: profile.ID(), Name: name, Code: decl.Node.Text()}

	if rec.HasDoc() {
		good, err := opts.Generator.Evaluate(ctx, snippet, rec.DocText())
		if err != nil {
			res.addDiagnostic(opts, line, GenerationFailure, fmt.Errorf("evaluate %s: %w", name, err))
			return patch.Edit{}, false
		}
		if good {
			opts.Debug("existing documentation kept", "name", name, "line", line)
			return patch.Edit{}, false
		}
		res.Progress = append(res.Progress, fmt.Sprintf("L%d:[Refactor] Regenerating poor-quality docstring for `%s`.", line, name))
	} else {
		res.Progress = append(res.Progress, fmt.Sprintf("L%d:[Docstring] Generating for function `%s`.", line, name))
	}

	text, err := opts.Generator.Generate(ctx, snippet, style)
	if err == nil && strings.TrimSpace(text) == "" {
		err = docgen.ErrEmptyResult
	}
	if err != nil {
		res.addDiagnostic(opts, line, GenerationFailure, fmt.Errorf("generate %s: %w", name, err))
		return patch.Edit{}, false
	}

	edit, err := planner.Plan(decl.Node, text, rec.Doc)
	if err != nil {
		kind := ParseFailure
		if errors.Is(err, editplan.ErrMissingName) {
			kind = MissingName
		}
		res.addDiagnostic(opts, line, kind, err)
		return patch.Edit{}, false
	}
	opts.Debug("planned edit", "name", name, "line", line, "kind", decl.Kind.String(), "replace", rec.HasDoc(), "span", fmt.Sprintf("[%d,%d)", edit.Start, edit.End))
	return edit, true
}

// planRenames judges rec's function name and the names it binds, and returns batch extended with the edits of every accepted variable rename. A rename is accepted
// only if its edits do not overlap anything already in batch and its new name is not taken by an earlier rename in the same declaration.
func (res *FileResult) planRenames(ctx context.Context, tree *syntax.Tree, planner *editplan.Planner, profile langprofile.Profile, namer docgen.Namer, rec classify.Record, batch patch.Batch, opts Options) patch.Batch {
	decl := rec.Declaration
	line := decl.Line()

	name, err := planner.Name(decl.Node)
	if err != nil {
		opts.Debug("refactor skipped", "line", line, "err", err)
		return batch
	}
	snippet := docgen.Snippet{Language: profile.ID(), Name: name, Code: decl.Node.Text()}

	if rename.Renameable(name) {
		if suggestion, ok := res.judgeName(ctx, namer, snippet, name, docgen.NameFunction, line, opts); ok {
			res.Progress = append(res.Progress, fmt.Sprintf("L%d:[Naming] Consider renaming function `%s` to `%s`.", line, name, suggestion))
		}
	}

	renamer := rename.New(tree, profile, decl.Node)
	bindings, err := renamer.Bindings()
	if err != nil {
		res.addDiagnostic(opts, line, PatternEvaluation, fmt.Errorf("local bindings of %s: %w", name, err))
		return batch
	}

	taken := make(map[string]bool)
	for _, from := range bindings {
		if !rename.Renameable(from) || ctx.Err() != nil {
			continue
		}
		to, ok := res.judgeName(ctx, namer, snippet, from, docgen.NameVariable, line, opts)
		if !ok {
			continue
		}
		if taken[to] {
			res.addDiagnostic(opts, line, EditConflict, fmt.Errorf("rename %s to %s in %s: %w: %q", from, to, name, rename.ErrNameInUse, to))
			continue
		}

		req := rename.IdentifierRename{From: from, To: to}
		edits, err := renamer.Plan(&req)
		if err != nil {
			res.addDiagnostic(opts, line, EditConflict, fmt.Errorf("rename %s to %s in %s: %w", from, to, name, err))
			continue
		}
		candidate := append(append(patch.Batch{}, batch...), edits...)
		if _, err := patch.Sorted(res.Original, candidate); err != nil {
			res.addDiagnostic(opts, line, EditConflict, fmt.Errorf("rename %s to %s in %s: %w", from, to, name, err))
			continue
		}
		batch = candidate
		taken[to] = true
		res.Progress = append(res.Progress, fmt.Sprintf("L%d:[Naming] Renaming variable `%s` to `%s` in `%s`.", line, from, to, name))
		opts.Debug("planned rename", "function", name, "from", from, "to", to, "occurrences", len(edits))
	}
	return batch
}

// judgeName asks namer whether name is good and, if not, for a replacement. ok is true only when a usable replacement was suggested; generator failures become
// diagnostics.
func (res *FileResult) judgeName(ctx context.Context, namer docgen.Namer, snippet docgen.Snippet, name string, kind docgen.NameKind, line int, opts Options) (string, bool) {
	good, err := namer.EvaluateName(ctx, snippet, name, kind)
	if err != nil {
		res.addDiagnostic(opts, line, GenerationFailure, fmt.Errorf("evaluate %s name %s: %w", kind, name, err))
		return "", false
	}
	if good {
		return "", false
	}
	suggestion, err := namer.SuggestName(ctx, snippet, name, kind)
	if err == nil && (!docgen.IsIdentifier(suggestion) || suggestion == name) {
		err = fmt.Errorf("%w: %q", docgen.ErrInvalidName, suggestion)
	}
	if err != nil {
		res.addDiagnostic(opts, line, GenerationFailure, fmt.Errorf("suggest %s name for %s: %w", kind, name, err))
		return "", false
	}
	return suggestion, true
}

func (res *FileResult) addDiagnostic(opts Options, line int, kind Kind, err error) {
	d := Diagnostic{File: res.Path, Line: line, Kind: kind, Err: err}
	res.Diagnostics = append(res.Diagnostics, d)
	if opts.Logger != nil {
		opts.Logger.Warn("skipped", "path", res.Path, "line", line, "kind", kind.String(), "err", err)
	}
}
