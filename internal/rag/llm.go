package rag

import "context"

type EmbeddingsClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationClient is the opaque call to the external LLM. Safe to retry on
// timeout: it is read-only from this core's perspective.
type GenerationClient interface {
	Generate(ctx context.Context, pkg PromptPackage, lang string) (string, error)
}
