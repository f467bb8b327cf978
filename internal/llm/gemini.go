package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/josinaldojr/contract-intel-rag/internal/rag"
	"google.golang.org/genai"
)

const (
	embeddingModel = "models/text-embedding-004"
	ragChatModel   = "gemini-2.5-flash"
	embedDim       = 768
)

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		embeddingModel,
		genai.Text(clean),
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(embedDim)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) != embedDim {
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), embedDim)
	}

	out := make([]float32, embedDim)
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// Generate sends an assembled prompt package to the chat model. The package
// already carries the template, the context block and the question; this
// client only adds the target answer language.
func (g *GeminiClient) Generate(ctx context.Context, pkg rag.PromptPackage, lang string) (string, error) {
	system := pkg.System + "\n\nAnswer in " + languageName(lang) + "."

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(system)[0],
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		ragChatModel,
		genai.Text(pkg.User),
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generateContent error: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("model returned empty text")
	}

	return txt, nil
}

// -------- helpers --------

func languageName(lang string) string {
	switch lang {
	case "pt":
		return "Brazilian Portuguese"
	case "es":
		return "Spanish"
	default:
		return "English"
	}
}

func normalizeWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			if !space {
				b.WriteRune(' ')
				space = true
			}
		} else {
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

var _ rag.EmbeddingsClient = (*GeminiClient)(nil)
var _ rag.GenerationClient = (*GeminiClient)(nil)
