package mistake

import (
	"time"

	"github.com/ready4exam/platform/core/quiz"
)

// Skipped is recorded as the selected answer of an unanswered question.
const Skipped = "Skipped"

// Mistake is one wrongly answered question.
type Mistake struct {
	UserID      string       `json:"user_id" firestore:"user_id"`
	ChapterSlug string       `json:"chapter_slug" firestore:"chapter_slug"`
	ID          string       `json:"id" firestore:"id"`
	Question    string       `json:"question" firestore:"question"`
	Options     quiz.Options `json:"options" firestore:"options"`
	Correct     string       `json:"correct" firestore:"correct"`
	Selected    string       `json:"selected" firestore:"selected"`
	Explanation string       `json:"explanation" firestore:"explanation"`
}

// Entry is a mistake_notebook document: the mistakes of one quiz attempt.
type Entry struct {
	ID          string    `json:"id" firestore:"-"`
	UserID      string    `json:"user_id" firestore:"user_id"`
	Topic       string    `json:"topic" firestore:"topic"`
	ChapterSlug string    `json:"chapter_slug" firestore:"chapter_slug"`
	Subject     string    `json:"subject,omitempty" firestore:"subject,omitempty"`
	ClassID     string    `json:"class_id" firestore:"class_id"`
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
	Mistakes    []Mistake `json:"mistakes" firestore:"mistakes"`
}

// FormulaEntry is one item of a chapter summary's formula vault.
type FormulaEntry struct {
	Label       string `json:"label" firestore:"label"`
	Formula     string `json:"formula" firestore:"formula"`
	Description string `json:"description,omitempty" firestore:"description"`
}

// Summary is an ncert_summaries document.
type Summary struct {
	ID           string                 `json:"id" firestore:"-"`
	Title        string                 `json:"title,omitempty" firestore:"title"`
	Overview     string                 `json:"overview,omitempty" firestore:"overview"`
	KeyPoints    []string               `json:"keyPoints,omitempty" firestore:"keyPoints"`
	FormulaVault []FormulaEntry         `json:"formulaVault,omitempty" firestore:"formulaVault"`
	Extra        map[string]interface{} `json:"extra,omitempty" firestore:"extra"`
}

// SaveRequest is what a console submits once a quiz is graded.
type SaveRequest struct {
	Questions []quiz.Question   `json:"questions" validate:"required"`
	Answers   map[string]string `json:"answers"`
	Topic     string            `json:"topic" validate:"required"`
	ClassID   string            `json:"class_id"`
}

type (
	// Item is a mistake placed in the notebook tree.
	Item struct {
		Mistake
		OriginalSlug string        `json:"originalSlug"`
		DocID        string        `json:"docId"`
		Hint         *FormulaEntry `json:"hint,omitempty"`
	}

	ChapterGroup struct {
		Name     string `json:"name"`
		Mistakes []Item `json:"mistakes"`
	}

	SubjectGroup struct {
		Subject  string         `json:"subject"`
		Chapters []ChapterGroup `json:"chapters"`
	}

	// Notebook groups mistakes Subject -> Chapter.
	Notebook struct {
		Grade    string         `json:"grade"`
		Subjects []SubjectGroup `json:"subjects"`
	}
)
