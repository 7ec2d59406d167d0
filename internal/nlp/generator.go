package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/HMPS-2025/homework-service/internal/models"
)

// GeneratedQuestion is the generator output before persistence.
type GeneratedQuestion struct {
	Type    models.QuestionType
	Text    string
	Content json.RawMessage
	Marks   float64
	Topic   string
}

// QuestionMix is how many questions of each type one homework carries.
type QuestionMix struct {
	MCQ         int
	ShortAnswer int
	Descriptive int
}

// DefaultMix matches the standard homework shape.
var DefaultMix = QuestionMix{MCQ: 2, ShortAnswer: 2, Descriptive: 1}

var (
	mcqTemplates = []string{
		"Which of the following best describes %s?",
		"What is the main characteristic of %s?",
		"Which statement about %s is correct?",
	}
	shortAnswerTemplates = []string{
		"Briefly explain the concept of %s.",
		"What is %s? Give a short answer in your own words.",
		"Describe the role of %s in this unit.",
	}
	descriptiveTemplates = []string{
		"Explain %s in detail with suitable examples.",
		"Discuss the importance of %s and describe how it relates to the rest of the unit.",
		"Write a detailed answer on %s, covering its key aspects.",
	}
)

const (
	descriptiveMinWords = 100
	descriptiveMaxWords = 500
)

// Generator builds homework questions from lesson material. With an
// OpenAI client configured it asks the model first and falls back to
// templates on any failure; without one it is purely template driven.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(apiKey string) *Generator {
	g := &Generator{model: openai.GPT4oMini}
	if apiKey != "" {
		g.client = openai.NewClient(apiKey)
	}
	return g
}

// GenerateSet produces a full question set for one lesson. Topics cycle
// so a second weekly homework from the same lesson gets different ones
// when the caller rotates the topic slice.
func (g *Generator) GenerateSet(ctx context.Context, lesson *models.Lesson, mix QuestionMix) ([]GeneratedQuestion, error) {
	topics := lesson.TopicList()
	if len(topics) == 0 {
		topics = ExtractTopics(lesson.Content, 10)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("lesson %d has no extractable topics", lesson.ID)
	}
	keywords := lesson.KeywordList()
	if len(keywords) == 0 {
		keywords = ExtractKeywords(lesson.Content, 10)
	}

	var questions []GeneratedQuestion
	topicAt := func(i int) string { return topics[i%len(topics)] }
	idx := 0

	for i := 0; i < mix.MCQ; i++ {
		q, err := g.generateOne(ctx, models.MCQ, topicAt(idx), topics, keywords, i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		idx++
	}
	for i := 0; i < mix.ShortAnswer; i++ {
		q, err := g.generateOne(ctx, models.ShortAnswer, topicAt(idx), topics, keywords, i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		idx++
	}
	for i := 0; i < mix.Descriptive; i++ {
		q, err := g.generateOne(ctx, models.Descriptive, topicAt(idx), topics, keywords, i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
		idx++
	}

	return questions, nil
}

func (g *Generator) generateOne(ctx context.Context, qt models.QuestionType, topic string, topics, keywords []string, variant int) (GeneratedQuestion, error) {
	if g.client != nil {
		if q, err := g.generateWithLLM(ctx, qt, topic); err == nil {
			return q, nil
		}
		// LLM failure falls through to templates
	}
	return g.generateFromTemplate(qt, topic, topics, keywords, variant)
}

func (g *Generator) generateFromTemplate(qt models.QuestionType, topic string, topics, keywords []string, variant int) (GeneratedQuestion, error) {
	switch qt {
	case models.MCQ:
		text := fmt.Sprintf(mcqTemplates[variant%len(mcqTemplates)], topic)
		content := MCQContentFor(topic, topics)
		raw, err := json.Marshal(content)
		if err != nil {
			return GeneratedQuestion{}, err
		}
		return GeneratedQuestion{Type: qt, Text: text, Content: raw, Marks: models.DefaultMCQMarks, Topic: topic}, nil

	case models.ShortAnswer:
		text := fmt.Sprintf(shortAnswerTemplates[variant%len(shortAnswerTemplates)], topic)
		content := models.ShortAnswerContent{
			ModelAnswer: modelAnswerFor(topic, keywords),
			KeyPoints:   keyPointsFor(topic, keywords, 3),
		}
		raw, err := json.Marshal(content)
		if err != nil {
			return GeneratedQuestion{}, err
		}
		return GeneratedQuestion{Type: qt, Text: text, Content: raw, Marks: models.DefaultShortAnswerMarks, Topic: topic}, nil

	case models.Descriptive:
		text := fmt.Sprintf(descriptiveTemplates[variant%len(descriptiveTemplates)], topic)
		content := models.DescriptiveContent{
			ModelAnswer: modelAnswerFor(topic, keywords),
			KeyPoints:   keyPointsFor(topic, keywords, 5),
			MinWords:    descriptiveMinWords,
			MaxWords:    descriptiveMaxWords,
		}
		raw, err := json.Marshal(content)
		if err != nil {
			return GeneratedQuestion{}, err
		}
		return GeneratedQuestion{Type: qt, Text: text, Content: raw, Marks: models.DefaultDescriptiveMarks, Topic: topic}, nil
	}
	return GeneratedQuestion{}, fmt.Errorf("unsupported question type: %s", qt)
}

// MCQContentFor builds options where the correct answer names the topic
// and the distractors name other topics from the same lesson.
func MCQContentFor(topic string, topics []string) models.MCQContent {
	options := map[string]string{"A": topic}
	letters := []string{"B", "C", "D"}
	li := 0
	for _, t := range topics {
		if li >= len(letters) {
			break
		}
		if strings.EqualFold(t, topic) {
			continue
		}
		options[letters[li]] = t
		li++
	}
	filler := []string{"None of the above", "All of the above", "Not covered in this unit"}
	for li < len(letters) {
		options[letters[li]] = filler[li%len(filler)]
		li++
	}
	return models.MCQContent{Options: options, CorrectOption: "A"}
}

func modelAnswerFor(topic string, keywords []string) string {
	related := keyPointsFor(topic, keywords, 4)
	if len(related) == 0 {
		return fmt.Sprintf("%s is a central concept of this unit.", topic)
	}
	return fmt.Sprintf("%s is a central concept of this unit, closely related to %s.",
		topic, strings.Join(related, ", "))
}

func keyPointsFor(topic string, keywords []string, n int) []string {
	points := make([]string, 0, n)
	for _, k := range keywords {
		if strings.EqualFold(k, topic) {
			continue
		}
		points = append(points, k)
		if len(points) >= n {
			break
		}
	}
	return points
}

const llmPrompt = `Generate one %s question for a school homework on the topic "%s".
Respond with JSON only, no prose. Schema:
%s`

var llmSchemas = map[models.QuestionType]string{
	models.MCQ:         `{"text": "...", "options": {"A": "...", "B": "...", "C": "...", "D": "..."}, "correct_option": "A"}`,
	models.ShortAnswer: `{"text": "...", "model_answer": "...", "key_points": ["...", "..."]}`,
	models.Descriptive: `{"text": "...", "model_answer": "...", "key_points": ["...", "..."]}`,
}

func (g *Generator) generateWithLLM(ctx context.Context, qt models.QuestionType, topic string) (GeneratedQuestion, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(llmPrompt, string(qt), topic, llmSchemas[qt]),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return GeneratedQuestion{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return GeneratedQuestion{}, fmt.Errorf("chat completion returned no choices")
	}

	return parseLLMQuestion(qt, topic, resp.Choices[0].Message.Content)
}

func parseLLMQuestion(qt models.QuestionType, topic, raw string) (GeneratedQuestion, error) {
	switch qt {
	case models.MCQ:
		var payload struct {
			Text          string            `json:"text"`
			Options       map[string]string `json:"options"`
			CorrectOption string            `json:"correct_option"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return GeneratedQuestion{}, fmt.Errorf("invalid mcq payload: %w", err)
		}
		if payload.Text == "" || len(payload.Options) < 2 || payload.Options[payload.CorrectOption] == "" {
			return GeneratedQuestion{}, fmt.Errorf("incomplete mcq payload")
		}
		content, err := json.Marshal(models.MCQContent{Options: payload.Options, CorrectOption: payload.CorrectOption})
		if err != nil {
			return GeneratedQuestion{}, err
		}
		return GeneratedQuestion{Type: qt, Text: payload.Text, Content: content, Marks: models.DefaultMCQMarks, Topic: topic}, nil

	default:
		var payload struct {
			Text        string   `json:"text"`
			ModelAnswer string   `json:"model_answer"`
			KeyPoints   []string `json:"key_points"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return GeneratedQuestion{}, fmt.Errorf("invalid answer payload: %w", err)
		}
		if payload.Text == "" || payload.ModelAnswer == "" {
			return GeneratedQuestion{}, fmt.Errorf("incomplete answer payload")
		}

		if qt == models.Descriptive {
			content, err := json.Marshal(models.DescriptiveContent{
				ModelAnswer: payload.ModelAnswer,
				KeyPoints:   payload.KeyPoints,
				MinWords:    descriptiveMinWords,
				MaxWords:    descriptiveMaxWords,
			})
			if err != nil {
				return GeneratedQuestion{}, err
			}
			return GeneratedQuestion{Type: qt, Text: payload.Text, Content: content, Marks: models.DefaultDescriptiveMarks, Topic: topic}, nil
		}

		content, err := json.Marshal(models.ShortAnswerContent{
			ModelAnswer: payload.ModelAnswer,
			KeyPoints:   payload.KeyPoints,
		})
		if err != nil {
			return GeneratedQuestion{}, err
		}
		return GeneratedQuestion{Type: qt, Text: payload.Text, Content: content, Marks: models.DefaultShortAnswerMarks, Topic: topic}, nil
	}
}
