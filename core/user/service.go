package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrExists               = errors.New("user profile already exists")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrNoGrant              = errors.New("email is not whitelisted")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSuspended            = errors.New("account suspended")
	ErrRoleMismatch         = errors.New("role does not match this console")
	ErrMissingSchool        = errors.New("school account is missing its school id")
	ErrProfileTimeout       = errors.New("timed out waiting for the user profile")

	nowFunc = time.Now // mockable

	profileWaitStart   = 50 * time.Millisecond
	profileWaitMax     = time.Second
	profileWaitTimeout = 5 * time.Second
)

type (
	Repository interface {
		// CreateUser fails with ErrExists when the uid is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, uid string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		SetLastLogin(ctx context.Context, uid string, at time.Time) error
		SetPasswordHash(ctx context.Context, uid string, hash []byte) error
		// SuspendUsersByEmail sets the suspended role and clears paid classes on the profiles holding `email`,
		// restricted to `schoolID` when set. Owner profiles are never suspended.
		SuspendUsersByEmail(ctx context.Context, email, schoolID string) (int, error)
	}

	// ProfileRecorder is notified whenever a profile is created.
	ProfileRecorder interface {
		ProfileCreated(role, tenantType string)
	}

	Service struct {
		repo     Repository
		resolver *Resolver
		recorder ProfileRecorder
		logger   core.Logger
	}
)

func NewService(repo Repository, resolver *Resolver, recorder ProfileRecorder, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		recorder: recorder,
		logger:   logger,
	}
}

// EnsureProfile returns the profile of `id`, creating it on first sign-in.
// An existing profile only gets its lastLogin refreshed: role and tenant are never rewritten.
func (svc *Service) EnsureProfile(ctx context.Context, id Identity) (User, bool, error) {
	if id.UID == "" {
		return User{}, false, core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "this field is required"})
	}

	now := nowFunc().UTC()
	usr, err := svc.repo.GetUser(ctx, id.UID)
	switch pkgerrors.Cause(err) {
	case nil:
		if err = svc.repo.SetLastLogin(ctx, usr.UID, now); err != nil {
			return User{}, false, pkgerrors.Wrap(err, "setting lastLogin")
		}
		usr.LastLogin = now
		return usr, false, nil
	case ErrNotFound: // first sign-in
	default:
		return User{}, false, pkgerrors.Wrap(err, "getting user")
	}

	usr = svc.resolver.Resolve(ctx, id)
	usr.CreatedAt = now
	usr.LastLogin = now
	created, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if pkgerrors.Cause(err) == ErrExists { // concurrent sign-in won the race
			existing, gErr := svc.repo.GetUser(ctx, id.UID)
			return existing, false, pkgerrors.Wrap(gErr, "getting user")
		}
		return User{}, false, pkgerrors.Wrap(err, "creating user")
	}

	svc.logger.Info(fmt.Sprintf("created %s profile (%s) for %s", created.Role, created.TenantType, created.UID))
	if svc.recorder != nil {
		svc.recorder.ProfileCreated(created.Role, created.TenantType)
	}
	return created, true, nil
}

// WaitForProfile polls until the profile exists and holds a role.
// The delay starts at 50ms, doubles on every attempt and is capped at 1s; it gives up after 5s.
func (svc *Service) WaitForProfile(ctx context.Context, uid string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, profileWaitTimeout)
	defer cancel()

	delay := profileWaitStart
	for {
		usr, err := svc.repo.GetUser(ctx, uid)
		if err == nil && usr.Role != "" {
			return usr, nil
		}
		if err != nil && pkgerrors.Cause(err) != ErrNotFound {
			svc.logger.Warn(fmt.Sprintf("waiting for profile %s: %v", uid, err), err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return User{}, ErrProfileTimeout
		case <-timer.C:
		}
		if delay *= 2; delay > profileWaitMax {
			delay = profileWaitMax
		}
	}
}

func (svc *Service) GetByUID(ctx context.Context, uid string) (User, error) {
	return svc.repo.GetUser(ctx, uid)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

// ListByTenant lists the profiles of one tenant type.
func (svc *Service) ListByTenant(ctx context.Context, tenantType string) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{TenantType: tenantType})
}

// Login authenticates a demo credential account.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, pkgerrors.Wrap(err, "finding user by username")
	}
	if len(usr.PasswordHash) == 0 || usr.CheckPassword(pwd) != nil {
		return User{}, ErrAuthenticationFailed
	}
	if usr.IsSuspended() {
		return User{}, ErrSuspended
	}

	now := nowFunc().UTC()
	if err = svc.repo.SetLastLogin(ctx, usr.UID, now); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting lastLogin")
	}
	usr.LastLogin = now
	return usr, nil
}

// CreateDemoAccount stores a credential account. Without an explicit role, the demo username mapping applies.
func (svc *Service) CreateDemoAccount(ctx context.Context, na NewDemoAccount) (User, error) {
	var grant Grant
	if na.Role != "" {
		grant = Grant{Role: na.Role, TenantType: TenantIndividual, SchoolID: na.SchoolID, ClassID: na.ClassID}
		switch {
		case na.Role == RoleOwner:
			grant.TenantType = TenantOwner
		case na.SchoolID != "":
			grant.TenantType = TenantSchool
		}
	} else {
		grant = DemoGrant(na.Username, svc.resolver.conf.Tenancy.DemoSchoolID)
		if na.ClassID != "" {
			grant.ClassID = na.ClassID
		}
	}

	now := nowFunc().UTC()
	usr := User{
		UID:         "demo-" + uuid.NewString(),
		Email:       na.Email,
		DisplayName: displayName(Identity{DisplayName: na.DisplayName, Username: na.Username, Email: na.Email}),
		Username:    na.Username,
		CreatedAt:   now,
		LastLogin:   now,
	}
	grant.apply(&usr)
	if err := usr.SetPassword(na.Password); err != nil {
		return User{}, err
	}

	created, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating demo account")
	}
	if svc.recorder != nil {
		svc.recorder.ProfileCreated(created.Role, created.TenantType)
	}
	return created, nil
}

// SetPassword replaces the password of a credential account.
func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	return svc.repo.SetPasswordHash(ctx, usr.UID, usr.PasswordHash)
}

// Suspend revokes the access of the profiles holding `email` in `schoolID` (every school if empty).
func (svc *Service) Suspend(ctx context.Context, email, schoolID string) (int, error) {
	return svc.repo.SuspendUsersByEmail(ctx, core.CleanString(email, true /* lower */), core.CleanString(schoolID))
}

func (svc *Service) checkUsernameUniqueness(ctx context.Context, uname string) error {
	_, err := svc.repo.GetUserByUsername(ctx, uname)
	switch pkgerrors.Cause(err) {
	case ErrNotFound:
		return nil
	case nil:
		return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	default:
		return err
	}
}
