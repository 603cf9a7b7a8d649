package governance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
)

var (
	// errors
	ErrSchoolRequired = errors.New("a school id is required")

	nowFunc = time.Now // mockable
)

// RecordedBySystem marks ledger events without a known recorder.
const RecordedBySystem = "system"

type (
	LedgerRepository interface {
		AddFinancialEvent(ctx context.Context, ev FinancialEvent) (FinancialEvent, error)
		// QueryFinancialEvents returns the events of a school, newest first.
		QueryFinancialEvents(ctx context.Context, schoolID string) ([]FinancialEvent, error)
	}

	UserLister interface {
		ListByTenant(ctx context.Context, tenantType string) ([]user.User, error)
	}

	ScoreQuerier interface {
		QueryScores(ctx context.Context, filter quiz.ScoreFilter) ([]quiz.Score, error)
	}

	Service struct {
		ledger    LedgerRepository
		users     UserLister
		scores    ScoreQuerier
		validate  *validator.Validate
		planPrice string
		logger    core.Logger
	}
)

func NewService(
	ledger LedgerRepository,
	users UserLister,
	scores ScoreQuerier,
	validate *validator.Validate,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		ledger:    ledger,
		users:     users,
		scores:    scores,
		validate:  validate,
		planPrice: conf.Tenancy.B2CPlanPrice,
		logger:    logger,
	}
}

// RecordFinancialEvent appends an event to the ledger of `schoolID`.
// An empty school id records nothing and returns a zero event.
func (svc *Service) RecordFinancialEvent(ctx context.Context, schoolID string, ne NewFinancialEvent, recordedBy string) (FinancialEvent, error) {
	schoolID = core.CleanString(schoolID)
	if schoolID == "" {
		return FinancialEvent{}, nil
	}
	if err := svc.validate.Struct(ne); err != nil {
		return FinancialEvent{}, err
	}
	if recordedBy = core.CleanString(recordedBy); recordedBy == "" {
		recordedBy = RecordedBySystem
	}

	details := ne.Details
	if details == nil {
		details = make(map[string]interface{})
	}
	ev, err := svc.ledger.AddFinancialEvent(ctx, FinancialEvent{
		SchoolID:   schoolID,
		Type:       core.CleanString(ne.Type),
		Amount:     ne.Amount,
		Details:    details,
		Timestamp:  nowFunc().UTC(),
		RecordedBy: recordedBy,
	})
	if err != nil {
		return FinancialEvent{}, pkgerrors.Wrap(err, "recording financial event")
	}
	svc.logger.Info(fmt.Sprintf("financial_event: school=%s type=%s amount=%.2f by=%s", schoolID, ev.Type, ev.Amount, recordedBy))
	return ev, nil
}

func (svc *Service) FinancialEvents(ctx context.Context, schoolID string) ([]FinancialEvent, error) {
	schoolID = core.CleanString(schoolID)
	if schoolID == "" {
		return nil, ErrSchoolRequired
	}
	return svc.ledger.QueryFinancialEvents(ctx, schoolID)
}

// IndividualUsers lists the B2C accounts.
func (svc *Service) IndividualUsers(ctx context.Context) ([]IndividualUser, error) {
	usrs, err := svc.users.ListByTenant(ctx, user.TenantIndividual)
	if err != nil {
		return nil, err
	}
	rows := make([]IndividualUser, 0, len(usrs))
	for _, u := range usrs {
		rows = append(rows, IndividualUser{
			UID:     u.UID,
			Email:   u.Email,
			Plan:    PlanDirect,
			Status:  "Active",
			Revenue: svc.planPrice,
		})
	}
	return rows, nil
}

// SchoolAnalytics aggregates the school-tenant scores of `schoolID`.
func (svc *Service) SchoolAnalytics(ctx context.Context, schoolID string) (SchoolAnalytics, error) {
	schoolID = core.CleanString(schoolID)
	if schoolID == "" {
		return SchoolAnalytics{}, ErrSchoolRequired
	}

	scores, err := svc.scores.QueryScores(ctx, quiz.ScoreFilter{SchoolID: schoolID, TenantType: user.TenantSchool})
	if err != nil {
		return SchoolAnalytics{}, pkgerrors.Wrap(err, "querying school scores")
	}

	res := SchoolAnalytics{SchoolID: schoolID, TotalAttempts: len(scores)}
	students := make(map[string]struct{})
	var total int
	for _, s := range scores {
		total += s.Percentage
		students[s.UserID] = struct{}{}
	}
	if res.TotalAttempts > 0 {
		res.AvgMastery = int(math.Round(float64(total) / float64(res.TotalAttempts)))
	}
	res.ActiveStudents = len(students)
	return res, nil
}
