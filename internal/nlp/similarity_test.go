package nlp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vectors[text], nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "empty vectors", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	t.Run("identical texts", func(t *testing.T) {
		assert.Equal(t, 1.0, JaccardSimilarity("plants need water", "plants need water"))
	})

	t.Run("disjoint texts", func(t *testing.T) {
		assert.Equal(t, 0.0, JaccardSimilarity("plants need water", "rocks stay solid"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// {plants, need, water} vs {plants, need, light}: 2 of 4
		assert.InDelta(t, 0.5, JaccardSimilarity("plants need water", "plants need light"), 1e-9)
	})

	t.Run("stopwords do not count", func(t *testing.T) {
		assert.Equal(t, 1.0, JaccardSimilarity("the water", "water"))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, 0.0, JaccardSimilarity("", "water"))
	})
}

func TestSemanticScorer_Score(t *testing.T) {
	ctx := context.Background()

	t.Run("uses embeddings when available", func(t *testing.T) {
		embedder := &fakeEmbedder{vectors: map[string][]float32{
			"answer":    {1, 0},
			"reference": {math.Sqrt2 / 2, math.Sqrt2 / 2},
		}}
		scorer := NewSemanticScorer(embedder)
		assert.InDelta(t, math.Sqrt2/2, scorer.Score(ctx, "answer", "reference"), 1e-6)
	})

	t.Run("falls back to word overlap on embedding failure", func(t *testing.T) {
		embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
		scorer := NewSemanticScorer(embedder)
		assert.Equal(t, 1.0, scorer.Score(ctx, "plants need water", "plants need water"))
	})

	t.Run("nil embedder uses word overlap", func(t *testing.T) {
		scorer := NewSemanticScorer(nil)
		assert.Equal(t, 1.0, scorer.Score(ctx, "plants need water", "plants need water"))
	})

	t.Run("empty inputs score zero", func(t *testing.T) {
		scorer := NewSemanticScorer(nil)
		assert.Equal(t, 0.0, scorer.Score(ctx, "", "reference"))
		assert.Equal(t, 0.0, scorer.Score(ctx, "answer", ""))
	})

	t.Run("score is clamped to unit interval", func(t *testing.T) {
		embedder := &fakeEmbedder{vectors: map[string][]float32{
			"answer":    {1, 0},
			"reference": {-1, 0},
		}}
		scorer := NewSemanticScorer(embedder)
		assert.Equal(t, 0.0, scorer.Score(ctx, "answer", "reference"))
	})
}
