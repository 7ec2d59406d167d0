package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
)

// Rubric weights and pass thresholds per question type.
const (
	shortSemanticWeight = 0.6
	shortKeyPointWeight = 0.4
	shortPassThreshold  = 0.6

	descSemanticWeight  = 0.4
	descKeyPointWeight  = 0.3
	descLengthWeight    = 0.15
	descCoherenceWeight = 0.15
	descPassThreshold   = 0.5
)

const (
	defaultDescMinWords = 100
	defaultDescMaxWords = 500
)

// gradeAnswer dispatches on question type. A missing answer scores zero
// with feedback rather than failing the whole submission.
func (s *gradingService) gradeAnswer(ctx context.Context, question *models.Question, index int, points float64, answer string) models.AnswerResult {
	result := models.AnswerResult{
		QuestionIndex: index,
		QuestionID:    question.ID,
		Type:          question.Type,
		Topic:         question.Topic,
		MaxMarks:      points,
	}

	if strings.TrimSpace(answer) == "" {
		incorrect := false
		result.IsCorrect = &incorrect
		result.Feedback = "No answer provided."
		return result
	}

	switch question.Type {
	case models.MCQ:
		s.gradeMCQ(question, answer, points, &result)
	case models.ShortAnswer:
		s.gradeShortAnswer(ctx, question, answer, points, &result)
	case models.Descriptive:
		s.gradeDescriptive(ctx, question, answer, points, &result)
	default:
		result.Feedback = fmt.Sprintf("Question type %s requires manual grading.", question.Type)
	}

	return result
}

// MCQ is binary: the chosen option letter, trimmed and uppercased, must
// equal the answer key.
func (s *gradingService) gradeMCQ(question *models.Question, answer string, points float64, result *models.AnswerResult) {
	var content models.MCQContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		result.Feedback = "Question content is malformed, needs manual review."
		return
	}

	chosen := strings.ToUpper(strings.TrimSpace(answer))
	correct := chosen == strings.ToUpper(strings.TrimSpace(content.CorrectOption))
	result.IsCorrect = &correct

	if correct {
		result.MarksAwarded = points
		result.SemanticScore = 1
		result.Feedback = "Correct! Well done."
	} else {
		result.Feedback = fmt.Sprintf("Incorrect. The correct answer is %s: %s.",
			content.CorrectOption, content.Options[content.CorrectOption])
	}
}

// Short answers combine semantic closeness to the model answer (0.6)
// with key-point coverage (0.4); 0.6 combined is the pass mark.
func (s *gradingService) gradeShortAnswer(ctx context.Context, question *models.Question, answer string, points float64, result *models.AnswerResult) {
	var content models.ShortAnswerContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		result.Feedback = "Question content is malformed, needs manual review."
		return
	}

	result.SemanticScore = clamp01(s.scorer.Score(ctx, answer, content.ModelAnswer))
	result.KeyPointScore = clamp01(keyPointCoverage(answer, content.KeyPoints))

	combined := clamp01(shortSemanticWeight*result.SemanticScore + shortKeyPointWeight*result.KeyPointScore)
	// Rounding to 0.1 can overshoot fractional point values.
	result.MarksAwarded = math.Min(roundTo1(combined*points), points)

	correct := combined >= shortPassThreshold
	result.IsCorrect = &correct
	result.Feedback = shortAnswerFeedback(combined, result.KeyPointScore, content.KeyPoints)
}

// Descriptive answers add length adequacy and coherence on top of the
// semantic and key-point components.
func (s *gradingService) gradeDescriptive(ctx context.Context, question *models.Question, answer string, points float64, result *models.AnswerResult) {
	var content models.DescriptiveContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		result.Feedback = "Question content is malformed, needs manual review."
		return
	}

	minWords := content.MinWords
	maxWords := content.MaxWords
	if minWords <= 0 {
		minWords = defaultDescMinWords
	}
	if maxWords <= 0 {
		maxWords = defaultDescMaxWords
	}

	result.SemanticScore = clamp01(s.scorer.Score(ctx, answer, content.ModelAnswer))
	result.KeyPointScore = clamp01(keyPointCoverage(answer, content.KeyPoints))
	result.LengthScore = clamp01(lengthAdequacy(wordCount(answer), minWords, maxWords))
	result.CoherenceScore = clamp01(coherenceScore(answer))

	combined := clamp01(descSemanticWeight*result.SemanticScore +
		descKeyPointWeight*result.KeyPointScore +
		descLengthWeight*result.LengthScore +
		descCoherenceWeight*result.CoherenceScore)
	result.MarksAwarded = math.Min(roundTo1(combined*points), points)

	correct := combined >= descPassThreshold
	result.IsCorrect = &correct
	result.Feedback = descriptiveFeedback(combined, result)
}

// keyPointCoverage is the fraction of key points mentioned. A point
// counts as covered when any of its words longer than 3 chars appears
// in the answer.
func keyPointCoverage(answer string, keyPoints []string) float64 {
	if len(keyPoints) == 0 {
		return 1
	}

	answerWords := make(map[string]bool)
	for _, w := range nlp.Tokenize(answer) {
		answerWords[w] = true
	}

	covered := 0
	for _, point := range keyPoints {
		for _, w := range nlp.Tokenize(point) {
			if len(w) > 3 && answerWords[w] {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(keyPoints))
}

// lengthAdequacy scores how well the answer fits the expected word
// band. Below minimum it degrades linearly; above maximum it dips but
// never below 0.5.
func lengthAdequacy(words, minWords, maxWords int) float64 {
	if minWords <= 0 {
		return 1
	}
	if words < minWords {
		return float64(words) / float64(minWords)
	}
	if maxWords > 0 && words > maxWords {
		over := float64(words-maxWords) / float64(maxWords)
		return math.Max(0.5, 1-over)
	}
	return 1
}

// coherenceScore is a rough structural check: the fraction of sentences
// with at least 3 words. Fewer than two sentences scores 0.5.
func coherenceScore(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return 0.5
	}

	wellFormed := 0
	for _, sentence := range sentences {
		if len(nlp.Tokenize(sentence)) >= 3 {
			wellFormed++
		}
	}
	return float64(wellFormed) / float64(len(sentences))
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// calculateLetterGrade maps a percentage to the school's grade ladder.
func calculateLetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 85:
		return "A"
	case percentage >= 80:
		return "A-"
	case percentage >= 75:
		return "B+"
	case percentage >= 70:
		return "B"
	case percentage >= 65:
		return "B-"
	case percentage >= 60:
		return "C+"
	case percentage >= 55:
		return "C"
	case percentage >= 50:
		return "C-"
	case percentage >= 45:
		return "D+"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

func shortAnswerFeedback(combined, keyPointScore float64, keyPoints []string) string {
	switch {
	case combined >= 0.85:
		return "Excellent answer, covers the expected points well."
	case combined >= shortPassThreshold:
		if keyPointScore < 1 && len(keyPoints) > 0 {
			return "Good answer. Consider also covering: " + strings.Join(keyPoints, ", ") + "."
		}
		return "Good answer."
	default:
		return "The answer misses much of the expected content. Review the lesson material."
	}
}

func descriptiveFeedback(combined float64, result *models.AnswerResult) string {
	var notes []string
	if result.KeyPointScore < 0.5 {
		notes = append(notes, "cover more of the key points")
	}
	if result.LengthScore < 0.7 {
		notes = append(notes, "adjust the answer length to the expected range")
	}
	if result.CoherenceScore < 0.7 {
		notes = append(notes, "structure the answer into full sentences")
	}

	switch {
	case combined >= 0.85:
		return "Excellent, well-developed answer."
	case combined >= descPassThreshold:
		if len(notes) > 0 {
			return "Good answer. To improve: " + strings.Join(notes, "; ") + "."
		}
		return "Good answer."
	default:
		if len(notes) > 0 {
			return "Needs work: " + strings.Join(notes, "; ") + "."
		}
		return "The answer does not address the question adequately."
	}
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
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
