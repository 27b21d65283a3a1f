package docgen

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultMaxSnippetTokens bounds the code sent per request when Options.MaxSnippetTokens is zero.
const DefaultMaxSnippetTokens = 3000

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.O200kBase)
	})
	return codec, codecErr
}

// CountTokens returns the O200kBase token count of text. If the tokenizer is unavailable it estimates len(text)/4.
func CountTokens(text string) int {
	enc, err := getCodec()
	if err != nil {
		return len(text) / 4
	}
	n, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// TruncateToTokens returns text cut to at most maxTokens tokens and whether it was cut. The cut falls at a line boundary when one exists inside the kept prefix, so
// the model never sees half a line of code. maxTokens <= 0 disables truncation.
func TruncateToTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}
	enc, err := getCodec()
	if err != nil {
		limit := maxTokens * 4
		if len(text) <= limit {
			return text, false
		}
		return cutAtLine(text[:limit]), true
	}

	ids, _, err := enc.Encode(text)
	if err != nil || len(ids) <= maxTokens {
		return text, false
	}
	prefix, err := enc.Decode(ids[:maxTokens])
	if err != nil {
		return text, false
	}
	return cutAtLine(prefix), true
}

func cutAtLine(s string) string {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] == '\n' {
			return s[:i+1]
		}
	}
	return s
}
