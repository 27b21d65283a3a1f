package autodoc

import (
	"fmt"
)

// Kind classifies why a file or declaration was skipped.
type Kind int

const (
	// UnsupportedLanguage: no profile is registered for the file.
	UnsupportedLanguage Kind = iota + 1

	// ParseFailure: the parser produced no tree, or a tree with syntax errors, or a declaration lacks the structure documentation attaches to.
	ParseFailure

	// PatternEvaluation: a profile pattern failed to compile or evaluate. Evaluation continues as if it matched nothing.
	PatternEvaluation

	// MissingName: a declaration's name could not be resolved.
	MissingName

	// GenerationFailure: the generator failed, returned nothing, or the run was cancelled.
	GenerationFailure

	// EditConflict: the planned edits overlapped, so the file was left unchanged.
	EditConflict

	// IOFailure: the file could not be read or written.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case UnsupportedLanguage:
		return "UnsupportedLanguage"
	case ParseFailure:
		return "ParseFailure"
	case PatternEvaluation:
		return "PatternEvaluation"
	case MissingName:
		return "MissingName"
	case GenerationFailure:
		return "GenerationFailure"
	case EditConflict:
		return "EditConflict"
	case IOFailure:
		return "IOFailure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Diagnostic reports one skipped file or declaration.
type Diagnostic struct {
	File string
	Line int // 1-based; 0 when the diagnostic concerns the whole file
	Kind Kind
	Err  error
}

// String formats d as `file:line: [kind] cause`, or `file: [kind] cause` for file-scoped diagnostics.
func (d Diagnostic) String() string {
	cause := "unknown error"
	if d.Err != nil {
		cause = d.Err.Error()
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s", d.File, d.Line, d.Kind, cause)
	}
	return fmt.Sprintf("%s: [%s] %s", d.File, d.Kind, cause)
}

func (d Diagnostic) Error() string {
	return d.String()
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}
