package mistake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/curriculum"
	"github.com/ready4exam/platform/core/user"
)

var (
	// errors
	ErrSummaryNotFound = errors.New("chapter summary not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		AddEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntries returns the notebook entries of a user, newest first.
		QueryEntries(ctx context.Context, uid string) ([]Entry, error)
	}

	SummaryRepository interface {
		// GetSummary fails with ErrSummaryNotFound when the document does not exist.
		GetSummary(ctx context.Context, id string) (Summary, error)
	}

	Service struct {
		repo      Repository
		summaries SummaryRepository
		validate  *validator.Validate
		classID   string
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	summaries SummaryRepository,
	validate *validator.Validate,
	conf *core.Config,
	logger core.Logger,
) *Service {
	classID := conf.Tenancy.DefaultClassID
	if classID == "" {
		classID = "9"
	}
	return &Service{
		repo:      repo,
		summaries: summaries,
		validate:  validate,
		classID:   classID,
		logger:    logger,
	}
}

// SaveMistakes stores the wrongly answered questions of a graded quiz.
// Nothing is written when every answer was correct: the returned bool is false then.
func (svc *Service) SaveMistakes(ctx context.Context, uid string, req SaveRequest) (Entry, bool, error) {
	if uid == "" {
		return Entry{}, false, core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "this field is required"})
	}
	if err := svc.validate.Struct(req); err != nil {
		return Entry{}, false, err
	}

	mistakes := make([]Mistake, 0)
	for _, q := range req.Questions {
		selected, answered := req.Answers[q.ID]
		if answered && selected == q.CorrectAnswer {
			continue
		}
		if !answered || selected == "" {
			selected = Skipped
		}
		mistakes = append(mistakes, Mistake{
			UserID:      uid,
			ChapterSlug: req.Topic,
			ID:          q.ID,
			Question:    q.Text,
			Options:     q.Options,
			Correct:     q.CorrectAnswer,
			Selected:    selected,
			Explanation: q.ScenarioReason,
		})
	}
	if len(mistakes) == 0 {
		return Entry{}, false, nil
	}

	classID := core.CleanString(req.ClassID)
	if classID == "" {
		classID = svc.classID
	}
	e, err := svc.repo.AddEntry(ctx, Entry{
		UserID:      uid,
		Topic:       req.Topic,
		ChapterSlug: req.Topic,
		ClassID:     classID,
		Timestamp:   nowFunc().UTC(),
		Mistakes:    mistakes,
	})
	if err != nil {
		return Entry{}, false, pkgerrors.Wrap(err, "saving mistakes")
	}
	svc.logger.Info(fmt.Sprintf("mistakes_saved: topic=%s count=%d user=%s", e.Topic, len(mistakes), uid))
	return e, true, nil
}

type chapterKey struct {
	subject, chapter string
}

// Notebook groups the mistakes of a profile Subject -> Chapter, attaching
// formula hints from the chapter summaries of `grade`.
func (svc *Service) Notebook(ctx context.Context, profile user.User, grade string) (Notebook, error) {
	grade = core.CleanString(grade)
	if grade == "" {
		grade = core.CleanString(profile.ClassID)
	}
	if grade == "" {
		grade = svc.classID
	}
	nb := Notebook{Grade: grade, Subjects: make([]SubjectGroup, 0)}

	entries, err := svc.repo.QueryEntries(ctx, profile.UID)
	if err != nil {
		return nb, pkgerrors.Wrap(err, "reading mistake notebook")
	}

	tree := make(map[string]map[string][]Item)
	for _, e := range entries {
		subject := curriculum.NormalizeSubjectOf(e.Subject, e.Topic)
		slug := e.Topic
		if slug == "" {
			slug = e.ChapterSlug
		}
		chapter := curriculum.FormatChapterName(slug)

		if tree[subject] == nil {
			tree[subject] = make(map[string][]Item)
		}
		for _, m := range e.Mistakes {
			tree[subject][chapter] = append(tree[subject][chapter], Item{
				Mistake:      m,
				OriginalSlug: slug,
				DocID:        e.ID,
			})
		}
	}

	summaries := svc.fetchSummaries(ctx, grade, tree)

	subjects := make([]string, 0, len(tree))
	for s := range tree {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	for _, subject := range subjects {
		chapters := make([]string, 0, len(tree[subject]))
		for c := range tree[subject] {
			chapters = append(chapters, c)
		}
		sort.Strings(chapters)

		group := SubjectGroup{Subject: subject, Chapters: make([]ChapterGroup, 0, len(chapters))}
		for _, chapter := range chapters {
			items := tree[subject][chapter]
			if summary, ok := summaries[chapterKey{subject, chapter}]; ok {
				for i := range items {
					items[i].Hint = matchHint(summary, items[i].Mistake)
				}
			}
			group.Chapters = append(group.Chapters, ChapterGroup{Name: chapter, Mistakes: items})
		}
		nb.Subjects = append(nb.Subjects, group)
	}
	return nb, nil
}

// fetchSummaries loads every chapter summary in parallel. Missing or failing ones are left out.
func (svc *Service) fetchSummaries(ctx context.Context, grade string, tree map[string]map[string][]Item) map[chapterKey]Summary {
	var mu sync.Mutex
	found := make(map[chapterKey]Summary)

	var g errgroup.Group
	for subject, chapters := range tree {
		for chapter := range chapters {
			key := chapterKey{subject, chapter}
			g.Go(func() error {
				s, err := svc.summaries.GetSummary(ctx, curriculum.SummaryID(grade, key.subject, key.chapter))
				if err != nil {
					if pkgerrors.Cause(err) != ErrSummaryNotFound {
						svc.logger.Warn(fmt.Sprintf("fetching summary for %s/%s: %v", key.subject, key.chapter, err), err)
					}
					return nil
				}
				mu.Lock()
				found[key] = s
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return found
}

func matchHint(s Summary, m Mistake) *FormulaEntry {
	text := strings.ToLower(m.Explanation + " " + m.Question)
	for i := range s.FormulaVault {
		label := strings.ToLower(s.FormulaVault[i].Label)
		if label != "" && strings.Contains(text, label) {
			hint := s.FormulaVault[i]
			return &hint
		}
	}
	return nil
}

// ChapterSummary returns the summary shown on the study-content page.
func (svc *Service) ChapterSummary(ctx context.Context, grade, subject, chapter string) (Summary, error) {
	grade = core.CleanString(grade)
	if grade == "" {
		grade = svc.classID
	}
	subject = core.CleanString(subject)
	chapter = core.CleanString(chapter)
	if subject == "" || chapter == "" {
		var flds []core.FieldError
		if subject == "" {
			flds = append(flds, core.FieldError{Field: "subject", Error: "this field is required"})
		}
		if chapter == "" {
			flds = append(flds, core.FieldError{Field: "chapter", Error: "this field is required"})
		}
		return Summary{}, core.NewValidationError(nil, flds...)
	}
	return svc.summaries.GetSummary(ctx, curriculum.SummaryID(grade, subject, chapter))
}
