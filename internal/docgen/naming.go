package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// NameKind says what a judged identifier names.
type NameKind int

const (
	NameVariable NameKind = iota // parameter or local variable
	NameFunction
)

func (k NameKind) String() string {
	if k == NameFunction {
		return "function"
	}
	return "variable"
}

// Namer judges identifier names and suggests replacements. Generators that implement it can drive identifier refactoring.
type Namer interface {
	// EvaluateName reports whether name, of the given kind, is a good name in snippet.
	EvaluateName(ctx context.Context, snippet Snippet, name string, kind NameKind) (bool, error)

	// SuggestName returns a better name for name. The result is a valid identifier different from name, or an error.
	SuggestName(ctx context.Context, snippet Snippet, name string, kind NameKind) (string, error)
}

// ErrInvalidName is returned when a suggested name is not a usable identifier.
var ErrInvalidName = errors.New("suggested name is not a valid identifier")

// IsIdentifier reports whether s is a letter or underscore followed by letters, digits, or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// allowedShortNames are conventional names that are good despite being short.
var allowedShortNames = map[string]bool{"i": true, "j": true, "k": true, "x": true, "y": true, "z": true, "id": true}

// IsConventionalShortName reports whether name is a short name that is conventionally acceptable (loop indices, coordinates, "id").
func IsConventionalShortName(name string) bool {
	return allowedShortNames[name]
}

var _ Namer = MockGenerator{}
var _ Namer = (*LLMGenerator)(nil)

// EvaluateName considers names of at least three characters, and conventional short names, good.
func (MockGenerator) EvaluateName(ctx context.Context, snippet Snippet, name string, kind NameKind) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return len(name) >= 3 || IsConventionalShortName(name), nil
}

// SuggestName returns "mock_name_for_" + name.
func (MockGenerator) SuggestName(ctx context.Context, snippet Snippet, name string, kind NameKind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "mock_name_for_" + name, nil
}

// EvaluateName asks the model for a YES/NO verdict on name.
func (g *LLMGenerator) EvaluateName(ctx context.Context, snippet Snippet, name string, kind NameKind) (bool, error) {
	snippet = g.truncate(snippet)
	resp, err := g.complete(ctx, promptEvaluateName(snippet, name, kind))
	if err != nil {
		return false, g.options.LogWrappedErr("docgen.evaluate_name", err, "name", name, "model", g.model)
	}
	verdict := strings.Contains(strings.ToLower(resp), "yes")
	g.options.Debug("evaluated name", "function", snippet.Name, "name", name, "good", verdict)
	return verdict, nil
}

// SuggestName asks the model for a replacement name. The answer is trimmed of fences, quotes, and backticks; anything that is still not a single identifier is
// reported as ErrInvalidName.
func (g *LLMGenerator) SuggestName(ctx context.Context, snippet Snippet, name string, kind NameKind) (string, error) {
	snippet = g.truncate(snippet)
	resp, err := g.complete(ctx, promptSuggestName(snippet, name, kind))
	if err != nil {
		return "", g.options.LogWrappedErr("docgen.suggest_name", err, "name", name, "model", g.model)
	}
	suggestion := cleanName(resp)
	if !IsIdentifier(suggestion) || suggestion == name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, suggestion)
	}
	return suggestion, nil
}

func cleanName(resp string) string {
	s := CleanResponse(resp)
	s = strings.Trim(strings.TrimSpace(s), "`'\"")
	return strings.TrimSpace(s)
}
