package governance

import "time"

// PlanDirect is the plan shown for individual (B2C) accounts.
const PlanDirect = "Direct (B2C)"

// FinancialEvent is a schools/{id}/financial_events document.
type FinancialEvent struct {
	ID         string                 `json:"id" firestore:"-"`
	SchoolID   string                 `json:"school_id" firestore:"-"`
	Type       string                 `json:"type" firestore:"type"`
	Amount     float64                `json:"amount" firestore:"amount"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp"`
	RecordedBy string                 `json:"recorded_by" firestore:"recorded_by"`
}

// NewFinancialEvent is what the owner console posts to the ledger.
type NewFinancialEvent struct {
	Type    string                 `json:"type" validate:"required,notblank"`
	Amount  float64                `json:"amount" validate:"gte=0"`
	Details map[string]interface{} `json:"details"`
}

// IndividualUser is a row of the owner console's B2C table.
type IndividualUser struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Plan    string `json:"plan"`
	Status  string `json:"status"`
	Revenue string `json:"revenue"`
}

// SchoolAnalytics aggregates the quiz scores of one school.
type SchoolAnalytics struct {
	SchoolID       string `json:"school_id"`
	TotalAttempts  int    `json:"totalAttempts"`
	AvgMastery     int    `json:"avgMastery"`
	ActiveStudents int    `json:"activeStudents"`
}
