package quiz

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Quiz modes
const (
	ModeStandard = "standard"
	ModeMixed    = "mixed"
)

// RawQuestion is a row of a chapter table in the question bank.
type RawQuestion struct {
	ID                 string      `db:"id"`
	QuestionText       null.String `db:"question_text"`
	QuestionType       null.String `db:"question_type"`
	ScenarioReasonText null.String `db:"scenario_reason_text"`
	OptionA            null.String `db:"option_a"`
	OptionB            null.String `db:"option_b"`
	OptionC            null.String `db:"option_c"`
	OptionD            null.String `db:"option_d"`
	CorrectAnswerKey   null.String `db:"correct_answer_key"`
	Difficulty         null.String `db:"difficulty"`
}

type Options struct {
	A string `json:"A" firestore:"A"`
	B string `json:"B" firestore:"B"`
	C string `json:"C" firestore:"C"`
	D string `json:"D" firestore:"D"`
}

// Question is the normalized form served to quiz consoles.
type Question struct {
	ID             string  `json:"id"`
	QuestionType   string  `json:"question_type"`
	Text           string  `json:"text"`
	ScenarioReason string  `json:"scenario_reason"`
	CorrectAnswer  string  `json:"correct_answer"`
	Options        Options `json:"options"`
	Difficulty     string  `json:"difficulty"`
}

// Score is a quiz_scores document.
type Score struct {
	ID            string    `json:"id" firestore:"-"`
	UserID        string    `json:"user_id" firestore:"user_id"`
	Email         string    `json:"email" firestore:"email"`
	Subject       string    `json:"subject" firestore:"subject"`
	Topic         string    `json:"topic" firestore:"topic"`
	Chapter       string    `json:"chapter" firestore:"chapter"`
	Difficulty    string    `json:"difficulty" firestore:"difficulty"`
	Score         int       `json:"score" firestore:"score"`
	Total         int       `json:"total" firestore:"total"`
	ScorePercent  int       `json:"score_percent" firestore:"score_percent"`
	Percentage    int       `json:"percentage" firestore:"percentage"`
	QuizMode      string    `json:"quiz_mode" firestore:"quiz_mode"`
	LatencyVector []int     `json:"latency_vector" firestore:"latency_vector"`
	TermID        string    `json:"term_id,omitempty" firestore:"term_id"`
	ClassID       string    `json:"class_id" firestore:"class_id"`
	TenantType    string    `json:"tenantType" firestore:"tenantType"`
	TenantID      string    `json:"tenantId,omitempty" firestore:"tenantId"`
	SchoolID      string    `json:"school_id,omitempty" firestore:"school_id"`
	Timestamp     time.Time `json:"timestamp" firestore:"timestamp"`
}

// ScoreFilter ANDs every non-empty field.
type ScoreFilter struct {
	UserID     string
	Chapter    string
	Difficulty string
	SchoolID   string
	TenantType string
}

// ResultInput is what a console submits at the end of a quiz.
type ResultInput struct {
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	TopicSlug     string `json:"topicSlug"`
	Difficulty    string `json:"difficulty" validate:"omitempty,difficulty"`
	Score         int    `json:"score" validate:"gte=0,ltefield=Total"`
	Total         int    `json:"total" validate:"gt=0"`
	QuizMode      string `json:"quiz_mode"`
	LatencyVector []int  `json:"latency_vector"`
	TermID        string `json:"term_id"`
	ClassID       string `json:"classId"`
}

// Attempt is a past score as listed on the student dashboard.
type Attempt struct {
	Score
	Date time.Time `json:"date"`
}

type Mastery struct {
	Topic            string `json:"topic"`
	Mastery          int    `json:"mastery"`
	AdvancedUnlocked bool   `json:"advanced_unlocked"`
}
