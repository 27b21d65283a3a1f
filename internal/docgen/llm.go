package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codalotl/autodoc/internal/health"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned by NewLLMGenerator when no API key is configured.
var ErrMissingAPIKey = errors.New("missing API key")

// LLMGenerator generates and evaluates documentation with an OpenAI-compatible chat completion endpoint.
type LLMGenerator struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter // nil when unlimited
	options Options
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator returns a generator for opts. opts.APIKey and opts.Model are required; opts.BaseURL selects the endpoint (empty means the OpenAI default).
func NewLLMGenerator(opts Options) (*LLMGenerator, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Model == "" {
		return nil, errors.New("docgen: no model configured")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.RequestTimeout))
	}
	if opts.MaxSnippetTokens == 0 {
		opts.MaxSnippetTokens = DefaultMaxSnippetTokens
	}

	g := &LLMGenerator{client: openai.NewClient(reqOpts...), model: opts.Model, options: opts}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return g, nil
}

// Model returns the model id requests are sent to.
func (g *LLMGenerator) Model() string {
	return g.model
}

// Generate asks the model for documentation and returns the cleaned answer.
func (g *LLMGenerator) Generate(ctx context.Context, snippet Snippet, style Style) (string, error) {
	snippet = g.truncate(snippet)
	resp, err := g.complete(ctx, promptGenerate(snippet, style))
	if err != nil {
		return "", g.options.LogWrappedErr("docgen.generate", err, "name", snippet.Name, "model", g.model)
	}
	doc := CleanResponse(resp)
	if doc == "" {
		return "", ErrEmptyResult
	}
	return doc, nil
}

// Evaluate asks the model for a YES/NO verdict on existing. Any answer containing "yes" counts as good.
func (g *LLMGenerator) Evaluate(ctx context.Context, snippet Snippet, existing string) (bool, error) {
	snippet = g.truncate(snippet)
	resp, err := g.complete(ctx, promptEvaluate(snippet, existing))
	if err != nil {
		return false, g.options.LogWrappedErr("docgen.evaluate", err, "name", snippet.Name, "model", g.model)
	}
	verdict := strings.Contains(strings.ToLower(resp), "yes")
	g.options.Debug("evaluated documentation", "name", snippet.Name, "good", verdict)
	return verdict, nil
}

func (g *LLMGenerator) truncate(snippet Snippet) Snippet {
	code, cut := TruncateToTokens(snippet.Code, g.options.MaxSnippetTokens)
	if cut {
		g.options.Log("truncated snippet", "name", snippet.Name, "tokens", CountTokens(snippet.Code), "max_tokens", g.options.MaxSnippetTokens)
		snippet.Code = code
	}
	return snippet
}

func (g *LLMGenerator) complete(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	request := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}

	resp, err := g.client.Chat.Completions.New(ctx, request)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", health.Wrap("chat completion failed", err, "status", apiErr.StatusCode)
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	if msg.Content == "" && msg.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", msg.Refusal)
	}
	return msg.Content, nil
}
