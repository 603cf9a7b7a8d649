package governance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/quiz"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/testutil"
)

type ledgerMock struct {
	events []FinancialEvent
}

func (m *ledgerMock) AddFinancialEvent(_ context.Context, ev FinancialEvent) (FinancialEvent, error) {
	ev.ID = "ev-1"
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *ledgerMock) QueryFinancialEvents(_ context.Context, schoolID string) ([]FinancialEvent, error) {
	events := make([]FinancialEvent, 0)
	for _, ev := range m.events {
		if ev.SchoolID == schoolID {
			events = append(events, ev)
		}
	}
	return events, nil
}

type usersMock []user.User

func (m usersMock) ListByTenant(_ context.Context, tenantType string) ([]user.User, error) {
	usrs := make([]user.User, 0)
	for _, u := range m {
		if u.TenantType == tenantType {
			usrs = append(usrs, u)
		}
	}
	return usrs, nil
}

type scoresMock struct {
	scores []quiz.Score
	filter quiz.ScoreFilter
	err    error
}

func (m *scoresMock) QueryScores(_ context.Context, filter quiz.ScoreFilter) ([]quiz.Score, error) {
	m.filter = filter
	return m.scores, m.err
}

func newService(ledger LedgerRepository, users UserLister, scores ScoreQuerier) *Service {
	conf := core.NewTestConfig()
	validate, _ := testutil.NewValidator()
	return NewService(ledger, users, scores, validate, conf, testutil.NewLogger(conf))
}

func TestService_RecordFinancialEvent(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	ledger := &ledgerMock{}
	svc := newService(ledger, usersMock{}, &scoresMock{})
	ctx := context.Background()

	ev, err := svc.RecordFinancialEvent(ctx, " ", NewFinancialEvent{Type: "license_renewal"}, "owner@ready4exam.com")
	require.NoError(t, err)
	assert.Equal(t, FinancialEvent{}, ev)
	assert.Empty(t, ledger.events)

	_, err = svc.RecordFinancialEvent(ctx, "DPS_001", NewFinancialEvent{Type: "  "}, "")
	assert.Error(t, err)
	_, err = svc.RecordFinancialEvent(ctx, "DPS_001", NewFinancialEvent{Type: "refund", Amount: -1}, "")
	assert.Error(t, err)

	ev, err = svc.RecordFinancialEvent(ctx, " DPS_001 ", NewFinancialEvent{Type: " seats ", Amount: 1200}, "")
	require.NoError(t, err)
	assert.Equal(t, FinancialEvent{
		ID:         "ev-1",
		SchoolID:   "DPS_001",
		Type:       "seats",
		Amount:     1200,
		Details:    map[string]interface{}{},
		Timestamp:  now,
		RecordedBy: RecordedBySystem,
	}, ev)

	events, err := svc.FinancialEvents(ctx, "DPS_001")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	_, err = svc.FinancialEvents(ctx, "")
	assert.Equal(t, ErrSchoolRequired, err)
}

func TestService_IndividualUsers(t *testing.T) {
	svc := newService(&ledgerMock{}, usersMock{
		{UID: "b2c", Email: "kid@gmail.com", TenantType: user.TenantIndividual},
		{UID: "staff", Email: "t@dps.edu", TenantType: user.TenantSchool},
		{UID: "owner", Email: "owner@ready4exam.com", TenantType: user.TenantOwner},
	}, &scoresMock{})

	rows, err := svc.IndividualUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []IndividualUser{
		{UID: "b2c", Email: "kid@gmail.com", Plan: PlanDirect, Status: "Active", Revenue: "₹499"},
	}, rows)
}

func TestService_SchoolAnalytics(t *testing.T) {
	scores := &scoresMock{scores: []quiz.Score{
		{UserID: "s1", Percentage: 80},
		{UserID: "s1", Percentage: 65},
		{UserID: "s2", Percentage: 100},
	}}
	svc := newService(&ledgerMock{}, usersMock{}, scores)
	ctx := context.Background()

	res, err := svc.SchoolAnalytics(ctx, "DPS_001")
	require.NoError(t, err)
	assert.Equal(t, SchoolAnalytics{SchoolID: "DPS_001", TotalAttempts: 3, AvgMastery: 82, ActiveStudents: 2}, res)
	assert.Equal(t, quiz.ScoreFilter{SchoolID: "DPS_001", TenantType: user.TenantSchool}, scores.filter)

	scores.scores = nil
	res, err = svc.SchoolAnalytics(ctx, "KV_009")
	require.NoError(t, err)
	assert.Equal(t, SchoolAnalytics{SchoolID: "KV_009"}, res)

	_, err = svc.SchoolAnalytics(ctx, "")
	assert.Equal(t, ErrSchoolRequired, err)

	scores.err = errors.New("boom")
	_, err = svc.SchoolAnalytics(ctx, "DPS_001")
	assert.Error(t, err)
}
