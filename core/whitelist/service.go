package whitelist

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("whitelist entry not found")
	ErrForbiddenSchool = errors.New("cannot manage another school's whitelist")

	errNoPermsToSetRole = "not enough rights to grant this role"
	errSchoolRequired   = "a school id is required"
	errOwnerEmail       = "owner accounts cannot be managed through the whitelist"

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		GetEntry(ctx context.Context, email string) (Entry, error)
		QueryEntries(ctx context.Context, schoolID string, orderings ...core.DBOrdering) ([]Entry, error)
		// UpsertEntries merges all entries in a single write batch.
		UpsertEntries(ctx context.Context, entries []Entry) error
		// SetRole merges the role into whitelist/{email}, creating the entry if needed.
		SetRole(ctx context.Context, email, role string, at time.Time) error
	}

	// Suspender suspends the profiles already created for an email, in one school or in all of them.
	Suspender interface {
		Suspend(ctx context.Context, email, schoolID string) (int, error)
	}

	Service struct {
		repo         Repository
		suspender    Suspender
		mailSvc      core.EmailService
		validate     *validator.Validate
		isOwnerEmail func(email string) bool
		batchSize    int
		logger       core.Logger
	}
)

var _ user.GrantLookup = (*Service)(nil)

func NewService(
	repo Repository,
	suspender Suspender,
	mailSvc core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
	logger core.Logger,
) *Service {
	batchSize := conf.Quiz.WhitelistBatchSize
	if batchSize <= 0 {
		batchSize = 400
	}
	return &Service{
		repo:         repo,
		suspender:    suspender,
		mailSvc:      mailSvc,
		validate:     validate,
		isOwnerEmail: conf.IsOwnerEmail,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// SetSuspender wires the profile suspender once the user service exists.
func (svc *Service) SetSuspender(s Suspender) { svc.suspender = s }

func (svc *Service) LookupGrant(ctx context.Context, email string) (user.Grant, error) {
	e, err := svc.repo.GetEntry(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return user.Grant{}, user.ErrNoGrant
		}
		return user.Grant{}, err
	}
	return e.grant(), nil
}

func (svc *Service) Get(ctx context.Context, email string) (Entry, error) {
	return svc.repo.GetEntry(ctx, core.CleanString(email, true /* lower */))
}

// List returns the whitelist of a school. Only the owner may list every school (empty schoolID).
func (svc *Service) List(ctx context.Context, actor user.User, schoolID string, orderings ...core.DBOrdering) ([]Entry, error) {
	schoolID, err := svc.actorSchool(actor, schoolID, false)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, schoolID, orderings...)
}

// Onboard pre-approves entries for a school, in write batches of at most 400.
// New emails receive an invitation.
func (svc *Service) Onboard(ctx context.Context, actor user.User, schoolID string, entries []NewEntry) (OnboardResult, error) {
	schoolID, err := svc.actorSchool(actor, schoolID, true)
	if err != nil {
		return OnboardResult{}, err
	}

	now := nowFunc().UTC()
	toSave := make([]Entry, 0, len(entries))
	invites := make([]*core.EmailMessage, 0)
	for i := range entries {
		ne := entries[i]
		ne.Clean()
		if err = svc.validateEntry(i, ne, actor); err != nil {
			return OnboardResult{}, err
		}

		existing, gErr := svc.repo.GetEntry(ctx, ne.Email)
		switch {
		case pkgerrors.Cause(gErr) == ErrNotFound:
			invites = append(invites, newInvite(ne, schoolID))
		case gErr != nil:
			return OnboardResult{}, pkgerrors.Wrap(gErr, "getting whitelist entry")
		case !actor.IsOwner() && existing.SchoolID != "" && existing.SchoolID != schoolID:
			// only the owner moves an email between schools
			return OnboardResult{}, ErrForbiddenSchool
		}

		toSave = append(toSave, Entry{
			Email:          ne.Email,
			Role:           ne.Role,
			SchoolID:       schoolID,
			Section:        ne.Section,
			AllowedClasses: ne.AllowedClasses,
			UpdatedAt:      now,
		})
	}

	for start := 0; start < len(toSave); start += svc.batchSize {
		end := start + svc.batchSize
		if end > len(toSave) {
			end = len(toSave)
		}
		if err = svc.repo.UpsertEntries(ctx, toSave[start:end]); err != nil {
			return OnboardResult{}, pkgerrors.Wrapf(err, "saving whitelist batch %d-%d", start, end)
		}
	}

	if len(invites) > 0 && svc.mailSvc != nil {
		svc.mailSvc.SendMessages(invites...)
	}
	svc.logger.Info(fmt.Sprintf("%s onboarded %d entries into %s", actor.Email, len(toSave), schoolID))
	return OnboardResult{SchoolID: schoolID, Onboarded: len(toSave), Invited: len(invites)}, nil
}

// Revoke suspends an email: the whitelist entry and every profile already created for it.
func (svc *Service) Revoke(ctx context.Context, actor user.User, email string) (RevokeResult, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return RevokeResult{}, core.NewValidationError(nil, core.FieldError{Field: "email", Error: "this field is required"})
	}
	if svc.isOwnerEmail(email) {
		return RevokeResult{}, core.NewValidationError(nil, core.FieldError{Field: "email", Error: errOwnerEmail})
	}

	// a school admin only suspends the profiles of their own school
	var schoolID string
	if !actor.IsOwner() {
		if actor.SchoolID == "" {
			return RevokeResult{}, user.ErrMissingSchool
		}
		e, err := svc.repo.GetEntry(ctx, email)
		if err != nil {
			return RevokeResult{}, err
		}
		if e.SchoolID != actor.SchoolID {
			return RevokeResult{}, ErrForbiddenSchool
		}
		schoolID = actor.SchoolID
	}

	if err := svc.repo.SetRole(ctx, email, user.RoleSuspended, nowFunc().UTC()); err != nil {
		return RevokeResult{}, pkgerrors.Wrap(err, "suspending whitelist entry")
	}
	res := RevokeResult{Email: email, WhitelistRevoked: true}

	if svc.suspender != nil {
		n, err := svc.suspender.Suspend(ctx, email, schoolID)
		if err != nil {
			return res, pkgerrors.Wrap(err, "suspending users")
		}
		res.SuspendedUsers = n
	}
	svc.logger.Info(fmt.Sprintf("%s revoked access for %s (%d profiles)", actor.Email, email, res.SuspendedUsers))
	return res, nil
}

// actorSchool resolves the school an actor operates on.
func (svc *Service) actorSchool(actor user.User, schoolID string, required bool) (string, error) {
	schoolID = core.CleanString(schoolID)
	if actor.IsOwner() {
		if required && schoolID == "" {
			return "", core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: errSchoolRequired})
		}
		return schoolID, nil
	}
	if actor.SchoolID == "" {
		return "", user.ErrMissingSchool
	}
	if schoolID != "" && schoolID != actor.SchoolID {
		return "", ErrForbiddenSchool
	}
	return actor.SchoolID, nil
}

func (svc *Service) validateEntry(idx int, ne NewEntry, actor user.User) error {
	rowErr := func(field, msg string) error {
		return core.NewValidationError(
			fmt.Errorf("row %d (%s): %s", idx+1, ne.Email, msg),
			core.FieldError{Field: fmt.Sprintf("entries[%d].%s", idx, field), Error: msg},
		)
	}

	if err := svc.validate.Struct(ne); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
			return rowErr(vErrs[0].Field(), "invalid "+vErrs[0].Field())
		}
		return err
	}
	if svc.isOwnerEmail(ne.Email) {
		return rowErr("email", errOwnerEmail)
	}
	if ne.Role == user.RoleOwner || ne.Role == user.RoleSuspended {
		return rowErr("role", "role cannot be granted through the whitelist")
	}
	// actor cannot grant a role > their own
	if !actor.IsOwner() && user.RolePriority(ne.Role) > user.RolePriority(actor.Role) {
		return rowErr("role", errNoPermsToSetRole)
	}
	return nil
}

func newInvite(ne NewEntry, schoolID string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Address: ne.Email}},
		Subject:      "You have been enrolled",
		TemplateName: "whitelist_invite",
		TemplateData: map[string]string{
			"Email":    ne.Email,
			"Role":     ne.Role,
			"SchoolID": schoolID,
		},
	}
}
