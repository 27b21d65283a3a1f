package docgen

import "context"

// MockDocumentation is the text MockGenerator always generates.
const MockDocumentation = "This is a mock docstring."

// MockGenerator generates MockDocumentation for everything and considers documentation good when it is longer than 20 bytes.
type MockGenerator struct{}

var _ Generator = MockGenerator{}

func (MockGenerator) Generate(ctx context.Context, snippet Snippet, style Style) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return MockDocumentation, nil
}

func (MockGenerator) Evaluate(ctx context.Context, snippet Snippet, existing string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return len(existing) > 20, nil
}
