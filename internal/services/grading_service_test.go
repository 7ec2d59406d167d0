package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"gorm.io/datatypes"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/nlp"
)

func newTestGradingService() *gradingService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return &gradingService{
		logger: logger,
		scorer: nlp.NewSemanticScorer(nil),
	}
}

func mcqQuestion(t *testing.T, correct string) *models.Question {
	t.Helper()
	content, err := json.Marshal(models.MCQContent{
		Options: map[string]string{
			"A": "Photosynthesis",
			"B": "Respiration",
			"C": "Transpiration",
			"D": "Germination",
		},
		CorrectOption: correct,
	})
	if err != nil {
		t.Fatalf("Failed to marshal content: %v", err)
	}
	return &models.Question{
		ID:      1,
		Type:    models.MCQ,
		Text:    "Which process converts light energy into chemical energy?",
		Content: datatypes.JSON(content),
	}
}

func TestGradingService_GradeAnswer_MCQ(t *testing.T) {
	s := newTestGradingService()
	ctx := context.Background()
	question := mcqQuestion(t, "A")

	tests := []struct {
		name        string
		answer      string
		wantMarks   float64
		wantCorrect bool
	}{
		{name: "exact match", answer: "A", wantMarks: 1, wantCorrect: true},
		{name: "lowercase match", answer: "a", wantMarks: 1, wantCorrect: true},
		{name: "whitespace trimmed", answer: "  A ", wantMarks: 1, wantCorrect: true},
		{name: "wrong option", answer: "B", wantMarks: 0, wantCorrect: false},
		{name: "empty answer", answer: "", wantMarks: 0, wantCorrect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.gradeAnswer(ctx, question, 0, 1, tt.answer)
			if result.MarksAwarded != tt.wantMarks {
				t.Errorf("MarksAwarded = %v, want %v", result.MarksAwarded, tt.wantMarks)
			}
			if result.IsCorrect == nil {
				t.Fatal("IsCorrect should not be nil for MCQ")
			}
			if *result.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", *result.IsCorrect, tt.wantCorrect)
			}
			if result.Feedback == "" {
				t.Error("Feedback should not be empty")
			}
		})
	}
}

func TestGradingService_GradeAnswer_ShortAnswer(t *testing.T) {
	s := newTestGradingService()
	ctx := context.Background()

	content, err := json.Marshal(models.ShortAnswerContent{
		ModelAnswer: "Photosynthesis converts light energy into chemical energy in plants",
		KeyPoints:   []string{"light energy", "chemical energy"},
	})
	if err != nil {
		t.Fatalf("Failed to marshal content: %v", err)
	}
	question := &models.Question{
		ID:      2,
		Type:    models.ShortAnswer,
		Content: datatypes.JSON(content),
	}

	t.Run("matching answer gets full marks", func(t *testing.T) {
		result := s.gradeAnswer(ctx, question, 0, 3,
			"Photosynthesis converts light energy into chemical energy in plants")
		if result.MarksAwarded != 3 {
			t.Errorf("MarksAwarded = %v, want 3", result.MarksAwarded)
		}
		if result.IsCorrect == nil || !*result.IsCorrect {
			t.Error("Expected answer to be marked correct")
		}
		if result.SemanticScore != 1 {
			t.Errorf("SemanticScore = %v, want 1", result.SemanticScore)
		}
		if result.KeyPointScore != 1 {
			t.Errorf("KeyPointScore = %v, want 1", result.KeyPointScore)
		}
	})

	t.Run("unrelated answer scores zero", func(t *testing.T) {
		result := s.gradeAnswer(ctx, question, 0, 3, "Mitochondria produce ATP during respiration")
		if result.MarksAwarded != 0 {
			t.Errorf("MarksAwarded = %v, want 0", result.MarksAwarded)
		}
		if result.IsCorrect == nil || *result.IsCorrect {
			t.Error("Expected answer to be marked incorrect")
		}
	})

	t.Run("fractional point value is never exceeded", func(t *testing.T) {
		result := s.gradeAnswer(ctx, question, 0, 0.75,
			"Photosynthesis converts light energy into chemical energy in plants")
		if result.MarksAwarded != 0.75 {
			t.Errorf("MarksAwarded = %v, want 0.75", result.MarksAwarded)
		}
		if result.MarksAwarded > result.MaxMarks {
			t.Errorf("MarksAwarded %v exceeds MaxMarks %v", result.MarksAwarded, result.MaxMarks)
		}
	})
}

func TestGradingService_GradeAnswer_DescriptiveFractionalPoints(t *testing.T) {
	s := newTestGradingService()
	ctx := context.Background()

	model := "Plants absorb sunlight with chlorophyll. The energy converts water and carbon dioxide into glucose."
	content, err := json.Marshal(models.DescriptiveContent{
		ModelAnswer: model,
		KeyPoints:   []string{"sunlight", "glucose"},
		MinWords:    5,
		MaxWords:    60,
	})
	if err != nil {
		t.Fatalf("Failed to marshal content: %v", err)
	}
	question := &models.Question{
		ID:      3,
		Type:    models.Descriptive,
		Content: datatypes.JSON(content),
	}

	result := s.gradeAnswer(ctx, question, 0, 1.25, model)
	if result.MarksAwarded != 1.25 {
		t.Errorf("MarksAwarded = %v, want 1.25", result.MarksAwarded)
	}
	if result.MarksAwarded > result.MaxMarks {
		t.Errorf("MarksAwarded %v exceeds MaxMarks %v", result.MarksAwarded, result.MaxMarks)
	}
}

func TestKeyPointCoverage(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		keyPoints []string
		want      float64
	}{
		{
			name:      "no key points means full coverage",
			answer:    "anything",
			keyPoints: nil,
			want:      1,
		},
		{
			name:      "all points covered",
			answer:    "Plants use sunlight and water to grow",
			keyPoints: []string{"sunlight", "water supply"},
			want:      1,
		},
		{
			name:      "half covered",
			answer:    "Plants use sunlight to grow",
			keyPoints: []string{"sunlight", "chlorophyll"},
			want:      0.5,
		},
		{
			name:      "none covered",
			answer:    "Rocks are hard",
			keyPoints: []string{"sunlight", "chlorophyll"},
			want:      0,
		},
		{
			name:      "short words are ignored",
			answer:    "it is an egg",
			keyPoints: []string{"egg"},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyPointCoverage(tt.answer, tt.keyPoints); got != tt.want {
				t.Errorf("keyPointCoverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLengthAdequacy(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		min, max int
		want     float64
	}{
		{name: "within band", words: 150, min: 100, max: 500, want: 1},
		{name: "at minimum", words: 100, min: 100, max: 500, want: 1},
		{name: "half of minimum", words: 50, min: 100, max: 500, want: 0.5},
		{name: "slightly over maximum", words: 550, min: 100, max: 500, want: 0.9},
		{name: "far over maximum floors at half", words: 2000, min: 100, max: 500, want: 0.5},
		{name: "no minimum configured", words: 10, min: 0, max: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lengthAdequacy(tt.words, tt.min, tt.max)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("lengthAdequacy(%d, %d, %d) = %v, want %v", tt.words, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestCoherenceScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "single sentence", text: "Plants grow towards light", want: 0.5},
		{name: "two full sentences", text: "Plants grow towards light. They need water to survive.", want: 1},
		{name: "one fragment of two", text: "Plants grow towards light. Yes.", want: 0.5},
		{name: "empty text", text: "", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coherenceScore(tt.text); got != tt.want {
				t.Errorf("coherenceScore(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCalculateLetterGrade(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{95, "A+"},
		{90, "A+"},
		{87, "A"},
		{82, "A-"},
		{76, "B+"},
		{71, "B"},
		{66, "B-"},
		{61, "C+"},
		{56, "C"},
		{51, "C-"},
		{46, "D+"},
		{41, "D"},
		{39.9, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		if got := calculateLetterGrade(tt.percentage); got != tt.want {
			t.Errorf("calculateLetterGrade(%v) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}

func TestRoundTo1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.44, 2.4},
		{2.45, 2.5},
		{2.46, 2.5},
		{0, 0},
		{3, 3},
	}

	for _, tt := range tests {
		if got := roundTo1(tt.in); got != tt.want {
			t.Errorf("roundTo1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
