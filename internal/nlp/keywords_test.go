package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "lowercases and splits", text: "Plants Need Water", want: []string{"plants", "need", "water"}},
		{name: "strips punctuation and digits", text: "H2O is water, 100% liquid!", want: []string{"h", "o", "is", "water", "liquid"}},
		{name: "empty text", text: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestContentWords(t *testing.T) {
	got := ContentWords("The plants in the garden are growing because of the sun")
	assert.Equal(t, []string{"plants", "garden", "growing", "sun"}, got)
}

func TestExtractKeywords(t *testing.T) {
	text := "Photosynthesis uses sunlight. Photosynthesis needs water. Photosynthesis makes glucose. Sunlight drives the reaction."

	t.Run("ranks by frequency", func(t *testing.T) {
		got := ExtractKeywords(text, 2)
		assert.Equal(t, []string{"photosynthesis", "sunlight"}, got)
	})

	t.Run("ties break alphabetically", func(t *testing.T) {
		got := ExtractKeywords("banana apple cherry", 3)
		assert.Equal(t, []string{"apple", "banana", "cherry"}, got)
	})

	t.Run("is deterministic", func(t *testing.T) {
		first := ExtractKeywords(text, 5)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, ExtractKeywords(text, 5))
		}
	})

	t.Run("zero topN returns nothing", func(t *testing.T) {
		assert.Nil(t, ExtractKeywords(text, 0))
	})

	t.Run("stopword-only text returns nothing", func(t *testing.T) {
		assert.Nil(t, ExtractKeywords("the and of it", 5))
	})
}

func TestExtractTopics(t *testing.T) {
	topics := ExtractTopics("photosynthesis photosynthesis respiration", 5)
	assert.Equal(t, []string{"Photosynthesis", "Respiration"}, topics)
}
