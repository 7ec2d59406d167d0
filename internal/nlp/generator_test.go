package nlp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/HMPS-2025/homework-service/internal/models"
)

func testLesson(t *testing.T) *models.Lesson {
	t.Helper()
	topics, err := json.Marshal([]string{"Photosynthesis", "Respiration", "Transpiration", "Germination"})
	require.NoError(t, err)
	keywords, err := json.Marshal([]string{"sunlight", "chlorophyll", "glucose", "oxygen", "stomata"})
	require.NoError(t, err)

	return &models.Lesson{
		ID:       1,
		Title:    "Plant processes",
		Subject:  "Science",
		Grade:    7,
		Content:  "Photosynthesis converts sunlight into glucose using chlorophyll.",
		Topics:   datatypes.JSON(topics),
		Keywords: datatypes.JSON(keywords),
	}
}

func TestGenerator_GenerateSet(t *testing.T) {
	g := NewGenerator("") // template mode
	ctx := context.Background()

	questions, err := g.GenerateSet(ctx, testLesson(t), DefaultMix)
	require.NoError(t, err)
	require.Len(t, questions, 5)

	var mcq, short, descriptive int
	for _, q := range questions {
		switch q.Type {
		case models.MCQ:
			mcq++
			assert.Equal(t, models.DefaultMCQMarks, q.Marks)
		case models.ShortAnswer:
			short++
			assert.Equal(t, models.DefaultShortAnswerMarks, q.Marks)
		case models.Descriptive:
			descriptive++
			assert.Equal(t, models.DefaultDescriptiveMarks, q.Marks)
		}
		assert.NotEmpty(t, q.Text)
		assert.NotEmpty(t, q.Content)
		assert.NotEmpty(t, q.Topic)
	}

	assert.Equal(t, 2, mcq)
	assert.Equal(t, 2, short)
	assert.Equal(t, 1, descriptive)
}

func TestGenerator_GenerateSet_ExtractsTopicsFromContent(t *testing.T) {
	g := NewGenerator("")
	lesson := testLesson(t)
	lesson.Topics = nil
	lesson.Keywords = nil

	questions, err := g.GenerateSet(context.Background(), lesson, QuestionMix{MCQ: 1})
	require.NoError(t, err)
	require.Len(t, questions, 1)
}

func TestGenerator_GenerateSet_NoTopics(t *testing.T) {
	g := NewGenerator("")
	lesson := testLesson(t)
	lesson.Topics = nil
	lesson.Keywords = nil
	lesson.Content = ""

	_, err := g.GenerateSet(context.Background(), lesson, DefaultMix)
	assert.Error(t, err)
}

func TestMCQContentFor(t *testing.T) {
	topics := []string{"Photosynthesis", "Respiration", "Transpiration", "Germination"}
	content := MCQContentFor("Photosynthesis", topics)

	assert.Equal(t, "A", content.CorrectOption)
	assert.Equal(t, "Photosynthesis", content.Options["A"])
	assert.Len(t, content.Options, 4)
	for key, opt := range content.Options {
		if key != "A" {
			assert.NotEqual(t, "Photosynthesis", opt)
		}
	}
}

func TestMCQContentFor_FewTopics(t *testing.T) {
	content := MCQContentFor("Photosynthesis", []string{"Photosynthesis"})

	assert.Len(t, content.Options, 4)
	assert.Equal(t, "Photosynthesis", content.Options["A"])
	// remaining slots get filler options
	assert.NotEmpty(t, content.Options["B"])
	assert.NotEmpty(t, content.Options["C"])
	assert.NotEmpty(t, content.Options["D"])
}

func TestParseLLMQuestion(t *testing.T) {
	t.Run("valid mcq payload", func(t *testing.T) {
		raw := `{"text": "Which gas do plants release?", "options": {"A": "Oxygen", "B": "Nitrogen", "C": "Helium", "D": "Methane"}, "correct_option": "A"}`
		q, err := parseLLMQuestion(models.MCQ, "Photosynthesis", raw)
		require.NoError(t, err)
		assert.Equal(t, models.MCQ, q.Type)
		assert.Equal(t, "Which gas do plants release?", q.Text)

		var content models.MCQContent
		require.NoError(t, json.Unmarshal(q.Content, &content))
		assert.Equal(t, "A", content.CorrectOption)
	})

	t.Run("mcq with missing correct option rejected", func(t *testing.T) {
		raw := `{"text": "Which gas?", "options": {"A": "Oxygen", "B": "Nitrogen"}, "correct_option": "Z"}`
		_, err := parseLLMQuestion(models.MCQ, "Photosynthesis", raw)
		assert.Error(t, err)
	})

	t.Run("descriptive payload gets word band", func(t *testing.T) {
		raw := `{"text": "Explain photosynthesis.", "model_answer": "Plants convert light to glucose.", "key_points": ["light", "glucose"]}`
		q, err := parseLLMQuestion(models.Descriptive, "Photosynthesis", raw)
		require.NoError(t, err)

		var content models.DescriptiveContent
		require.NoError(t, json.Unmarshal(q.Content, &content))
		assert.Equal(t, descriptiveMinWords, content.MinWords)
		assert.Equal(t, descriptiveMaxWords, content.MaxWords)
	})

	t.Run("invalid json rejected", func(t *testing.T) {
		_, err := parseLLMQuestion(models.ShortAnswer, "Photosynthesis", "not json")
		assert.Error(t, err)
	})
}
