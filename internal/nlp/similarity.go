package nlp

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder produces a vector representation of a text. Implementations
// may fail (network, quota); callers fall back to lexical overlap.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}

// SemanticScorer scores how close a student answer is to the model
// answer, in [0, 1]. With no embedder, or when embedding fails, it uses
// Jaccard word overlap.
type SemanticScorer struct {
	embedder Embedder
}

func NewSemanticScorer(embedder Embedder) *SemanticScorer {
	return &SemanticScorer{embedder: embedder}
}

func (s *SemanticScorer) Score(ctx context.Context, answer, reference string) float64 {
	if answer == "" || reference == "" {
		return 0
	}

	if s.embedder != nil {
		a, errA := s.embedder.Embed(ctx, answer)
		if errA == nil {
			b, errB := s.embedder.Embed(ctx, reference)
			if errB == nil {
				return clamp01(CosineSimilarity(a, b))
			}
		}
	}

	return JaccardSimilarity(answer, reference)
}

// CosineSimilarity returns the cosine of the angle between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// JaccardSimilarity measures content-word overlap between two texts.
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range ContentWords(text) {
		set[w] = true
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
