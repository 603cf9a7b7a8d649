package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{topic: "Motion", want: "motion"},
		{topic: " Force ", want: "force"},
		{topic: "Laws of  Motion", want: "laws_of_motion"},
		{topic: "science_quiz_ch1", want: "science_quiz_ch1"},
		{topic: "Gravitation_quiz", want: "Gravitation_quiz"},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, TableName(tt.topic))
		})
	}
}

func TestSplitTopics(t *testing.T) {
	assert.Equal(t, []string{"motion", "force", "work"}, SplitTopics("motion, force", "", " work ,"))
	assert.Empty(t, SplitTopics())
	assert.Empty(t, SplitTopics(" , "))
}

func TestNormalize(t *testing.T) {
	str := null.StringFrom

	tests := []struct {
		name       string
		raw        RawQuestion
		wantText   string
		wantReason string
	}{
		{
			name: "mcq is untouched",
			raw: RawQuestion{
				QuestionText:       str("What is the SI unit of force?"),
				QuestionType:       str("MCQ"),
				ScenarioReasonText: str(""),
			},
			wantText: "What is the SI unit of force?",
		},
		{
			name: "assertion and reason in separate columns",
			raw: RawQuestion{
				QuestionText:       str("Assertion (A): The sky is blue."),
				QuestionType:       str("AR"),
				ScenarioReasonText: str("Reason (R): Light scatters."),
			},
			wantText:   "The sky is blue.",
			wantReason: "Light scatters.",
		},
		{
			name: "assertion and reason in the text",
			raw: RawQuestion{
				QuestionText: str("Assertion (A):  Ice floats.\nReason (R): Ice is less dense than water."),
				QuestionType: str("assertion-reason"),
			},
			wantText:   "Ice floats.",
			wantReason: "Ice is less dense than water.",
		},
		{
			name: "no reason marker",
			raw: RawQuestion{
				QuestionText:       str("assertion (a): Metals conduct heat."),
				QuestionType:       str("AR"),
				ScenarioReasonText: str("Free electrons carry energy."),
			},
			wantText:   "Metals conduct heat.",
			wantReason: "Free electrons carry energy.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Normalize(tt.raw)
			assert.Equal(t, tt.wantText, q.Text)
			assert.Equal(t, tt.wantReason, q.ScenarioReason)
		})
	}

	t.Run("fields", func(t *testing.T) {
		q := Normalize(RawQuestion{
			ID:               "q1",
			QuestionType:     str("MCQ"),
			CorrectAnswerKey: str(" b "),
			OptionA:          str("1"),
			OptionB:          str("2"),
			OptionC:          str("3"),
			OptionD:          str("4"),
			Difficulty:       str("Simple"),
		})
		assert.Equal(t, Question{
			ID:            "q1",
			QuestionType:  "mcq",
			CorrectAnswer: "B",
			Options:       Options{A: "1", B: "2", C: "3", D: "4"},
			Difficulty:    "Simple",
		}, q)
	})
}

func TestInferSubject(t *testing.T) {
	tests := map[string]string{
		"physics_motion":   "Science",
		"chemical_bonds":   "Science",
		"algebra_basics":   "Mathematics",
		"history_of_india": "Social Science",
		"poems":            "General",
	}
	for slug, want := range tests {
		assert.Equal(t, want, InferSubject(slug), slug)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 90, Percent(9, 10))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 0, Percent(3, 0))
}
