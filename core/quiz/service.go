package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"golang.org/x/sync/errgroup"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

var (
	// errors
	ErrNoQuestions = errors.New("no questions found")

	nowFunc = time.Now // mockable
)

type (
	// QuestionBank reads chapter tables filtered by difficulty.
	QuestionBank interface {
		Questions(ctx context.Context, table, difficulty string) ([]RawQuestion, error)
	}

	ScoreRepository interface {
		AddScore(ctx context.Context, s Score) (Score, error)
		// QueryScores returns the matching scores, newest first.
		QueryScores(ctx context.Context, filter ScoreFilter) ([]Score, error)
	}

	// EventRecorder receives the quiz analytics events.
	EventRecorder interface {
		QuestionsServed(mode string, n int)
		QuizCompleted(mode, tenantType string)
	}

	Service struct {
		bank     QuestionBank
		scores   ScoreRepository
		recorder EventRecorder
		validate *validator.Validate
		conf     core.QuizConfig
		classID  string
		logger   core.Logger

		mu  sync.Mutex
		rnd *rand.Rand
	}

	// NoQuestionsError reports an empty fetch for the requested difficulty.
	NoQuestionsError struct {
		Difficulty string
	}
)

func (e NoQuestionsError) Error() string {
	return fmt.Sprintf("No questions found matching %q.", e.Difficulty)
}

func (e NoQuestionsError) Unwrap() error { return ErrNoQuestions }

func NewService(
	bank QuestionBank,
	scores ScoreRepository,
	recorder EventRecorder,
	validate *validator.Validate,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		bank:     bank,
		scores:   scores,
		recorder: recorder,
		validate: validate,
		conf:     conf.Quiz,
		classID:  conf.Tenancy.DefaultClassID,
		logger:   logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource makes mixed-quiz shuffling deterministic (tests).
func (svc *Service) SetRandSource(src rand.Source) {
	svc.mu.Lock()
	svc.rnd = rand.New(src)
	svc.mu.Unlock()
}

// FetchQuestions loads the questions of every topic in parallel.
// A failing table only contributes no questions. More than one topic is a mixed quiz:
// the pool gets shuffled and capped.
func (svc *Service) FetchQuestions(ctx context.Context, topics []string, difficulty string) ([]Question, error) {
	topics = SplitTopics(topics...)
	if err := vala.BeginValidation().Validate(
		vala.GreaterThan(len(topics), 0, "topic"),
	).Check(); err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "topic", Error: "at least one topic is required"})
	}

	diff, _ := core.CanonicalDifficulty(difficulty)
	if diff == "" {
		diff = svc.conf.DefaultDifficulty
	}

	results := make([][]Question, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		i, table := i, TableName(topic)
		g.Go(func() error {
			rows, err := svc.bank.Questions(gctx, table, diff)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				svc.logger.Warn(fmt.Sprintf("fetching questions from %s: %v", table, err), err)
				return nil
			}
			qs := make([]Question, 0, len(rows))
			for _, row := range rows {
				qs = append(qs, Normalize(row))
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]Question, 0)
	for _, qs := range results {
		all = append(all, qs...)
	}
	if len(all) == 0 {
		return nil, NoQuestionsError{Difficulty: diff}
	}

	mode := ModeStandard
	if len(topics) > 1 {
		mode = ModeMixed
		svc.shuffle(all)
		if size := svc.conf.MixedSize; size > 0 && len(all) > size {
			all = all[:size]
		}
	}
	if svc.recorder != nil {
		svc.recorder.QuestionsServed(mode, len(all))
	}
	return all, nil
}

func (svc *Service) shuffle(qs []Question) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

// SaveResult stores a finished quiz, stamped with the tenant of the profile.
func (svc *Service) SaveResult(ctx context.Context, profile user.User, in ResultInput) (Score, error) {
	if err := svc.validate.Struct(in); err != nil {
		return Score{}, err
	}

	topic := firstNonEmpty(in.TopicSlug, in.Topic, "Unknown")
	difficulty, _ := core.CanonicalDifficulty(in.Difficulty)
	percent := Percent(in.Score, in.Total)
	s := Score{
		UserID:        profile.UID,
		Email:         profile.Email,
		Subject:       firstNonEmpty(in.Subject, "Unknown"),
		Topic:         topic,
		Chapter:       topic,
		Difficulty:    difficulty,
		Score:         in.Score,
		Total:         in.Total,
		ScorePercent:  percent,
		Percentage:    percent,
		QuizMode:      firstNonEmpty(in.QuizMode, ModeStandard),
		LatencyVector: in.LatencyVector,
		TermID:        in.TermID,
		ClassID:       firstNonEmpty(in.ClassID, svc.classID),
		TenantType:    firstNonEmpty(profile.TenantType, user.TenantIndividual),
		TenantID:      profile.TenantID,
		SchoolID:      profile.SchoolID,
		Timestamp:     nowFunc().UTC(),
	}
	if s.LatencyVector == nil {
		s.LatencyVector = []int{}
	}

	saved, err := svc.scores.AddScore(ctx, s)
	if err != nil {
		return Score{}, err
	}

	svc.logger.Info(fmt.Sprintf("quiz_completed: topic=%s score=%d mode=%s user=%s tenant=%s",
		saved.Topic, saved.Score, saved.QuizMode, saved.UserID, saved.TenantType))
	if svc.recorder != nil {
		svc.recorder.QuizCompleted(saved.QuizMode, saved.TenantType)
	}
	return saved, nil
}

// ChapterMastery is the best Medium-difficulty percentage of a profile on a chapter, 0 on failure.
// School profiles only see the scores of their own school.
func (svc *Service) ChapterMastery(ctx context.Context, profile user.User, topic string) int {
	if profile.UID == "" || topic == "" {
		return 0
	}

	filter := ScoreFilter{UserID: profile.UID, Chapter: topic, Difficulty: svc.conf.MasteryDifficulty}
	if profile.TenantType == user.TenantSchool && profile.SchoolID != "" {
		filter.SchoolID = profile.SchoolID
	}
	scores, err := svc.scores.QueryScores(ctx, filter)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("mastery check failed: %v", err), err, profile)
		return 0
	}

	var max int
	for _, s := range scores {
		if s.Percentage > max {
			max = s.Percentage
		}
	}
	return max
}

// Mastery wraps ChapterMastery with the Advanced-level unlock decision.
func (svc *Service) Mastery(ctx context.Context, profile user.User, topic string) Mastery {
	m := svc.ChapterMastery(ctx, profile, topic)
	return Mastery{Topic: topic, Mastery: m, AdvancedUnlocked: svc.AdvancedUnlocked(m)}
}

func (svc *Service) AdvancedUnlocked(mastery int) bool {
	return mastery >= svc.conf.UnlockThreshold
}

// Attempts lists the scores of a user, newest first. Failures yield an empty list.
func (svc *Service) Attempts(ctx context.Context, uid string) []Attempt {
	attempts := make([]Attempt, 0)
	if uid == "" {
		return attempts
	}

	scores, err := svc.scores.QueryScores(ctx, ScoreFilter{UserID: uid})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("fetching attempts failed: %v", err), err)
		return attempts
	}
	for _, s := range scores {
		date := s.Timestamp
		if date.IsZero() {
			date = nowFunc().UTC()
		}
		s.Subject = InferSubject(s.Chapter)
		attempts = append(attempts, Attempt{Score: s, Date: date})
	}
	return attempts
}

// QueryScores exposes raw score queries to the school analytics.
func (svc *Service) QueryScores(ctx context.Context, filter ScoreFilter) ([]Score, error) {
	return svc.scores.QueryScores(ctx, filter)
}

// Percent is the rounded percentage of score over total.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = core.CleanString(v); v != "" {
			return v
		}
	}
	return ""
}
