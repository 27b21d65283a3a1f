// Package docgen produces documentation text for declarations. A Generator writes new documentation for a code snippet and judges whether existing documentation is good
// enough to keep.
//
// Two strategies exist: "mock" (fixed output, for tests and dry runs without credentials) and an LLM strategy that talks to any OpenAI-compatible chat completion
// endpoint ("groq" defaults to Groq's endpoint; "openai" to OpenAI's). Generated text is plain documentation content: comment markers, fences, and indentation
// are stripped so the caller's formatter can render it in the target language's convention.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codalotl/autodoc/internal/health"
)

// Generator creates and evaluates documentation.
type Generator interface {
	// Generate returns documentation content for snippet in the given style. An empty result is reported as ErrEmptyResult.
	Generate(ctx context.Context, snippet Snippet, style Style) (string, error)

	// Evaluate reports whether existing is high-quality documentation for snippet.
	Evaluate(ctx context.Context, snippet Snippet, existing string) (bool, error)
}

// Snippet is the code a generator sees.
type Snippet struct {
	Language string // profile id (ex: "python")
	Name     string // declaration name
	Code     string // declaration source text
}

// ErrEmptyResult is returned when a generator produces no usable text.
var ErrEmptyResult = errors.New("generator returned no documentation")

// ErrUnknownStrategy is returned by New for an unrecognized strategy name.
var ErrUnknownStrategy = errors.New("unknown generator strategy")

// Style is a documentation layout convention requested from the generator.
type Style string

const (
	StyleGoogle Style = "google"
	StyleNumpy  Style = "numpy"
	StyleRST    Style = "rst"
)

// Styles lists the supported styles.
func Styles() []Style {
	return []Style{StyleGoogle, StyleNumpy, StyleRST}
}

// ParseStyle returns the Style named s (case-insensitive). An empty s yields StyleGoogle.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleGoogle, nil
	}
	for _, st := range Styles() {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q (want google, numpy, or rst)", s)
}

// Strategy names accepted by New.
const (
	StrategyMock   = "mock"
	StrategyGroq   = "groq"
	StrategyOpenAI = "openai"
)

// Default endpoints and models per LLM strategy.
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	GroqDefaultModel = "llama-3.3-70b-versatile"

	OpenAIBaseURL      = "https://api.openai.com/v1"
	OpenAIDefaultModel = "gpt-4o-mini"
)

// Options configures New.
type Options struct {
	APIKey           string
	BaseURL          string        // overrides the strategy's default endpoint
	Model            string        // overrides the strategy's default model
	RequestTimeout   time.Duration // per request; zero means no timeout beyond ctx
	MaxSnippetTokens int           // snippets longer than this are truncated before prompting; zero uses DefaultMaxSnippetTokens
	RateLimit        float64       // max requests per second across all callers of one generator; zero means unlimited

	health.Ctx
}

// New returns the generator for strategy. LLM strategies require opts.APIKey.
func New(strategy string, opts Options) (Generator, error) {
	switch strings.ToLower(strategy) {
	case StrategyMock:
		return MockGenerator{}, nil
	case StrategyGroq:
		return NewLLMGenerator(withDefaults(opts, GroqBaseURL, GroqDefaultModel))
	case StrategyOpenAI:
		return NewLLMGenerator(withDefaults(opts, OpenAIBaseURL, OpenAIDefaultModel))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Strategies lists the names accepted by New.
func Strategies() []string {
	return []string{StrategyMock, StrategyGroq, StrategyOpenAI}
}

// NeedsAPIKey reports whether strategy talks to a remote service.
func NeedsAPIKey(strategy string) bool {
	s := strings.ToLower(strategy)
	return s == StrategyGroq || s == StrategyOpenAI
}

func withDefaults(opts Options, baseURL, model string) Options {
	if opts.BaseURL == "" {
		opts.BaseURL = baseURL
	}
	if opts.Model == "" {
		opts.Model = model
	}
	return opts
}
