package ai

import (
	"context"
)

// Request is a single JSON-mode completion request. Providers always sample
// with temperature 0 and ask for a JSON object response.
type Request struct {
	// Model overrides the provider's default model when set.
	Model  string
	System string
	Prompt string
}

// Generator is the language model collaborator. It returns the raw response
// text, which is expected to hold a JSON object.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

// GenerateObject calls the generator and decodes its response into a JSON object.
// The raw response is returned alongside for logging.
func GenerateObject(ctx context.Context, g Generator, req Request) (map[string]any, string, error) {
	raw, err := g.Generate(ctx, req)
	if err != nil {
		return nil, "", err
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, raw, err
	}

	return obj, raw, nil
}
