package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
)

// GrantLookup finds the school grant pre-approved for an email.
// It returns ErrNoGrant when the email is not whitelisted.
type GrantLookup interface {
	LookupGrant(ctx context.Context, email string) (Grant, error)
}

// Resolver maps a verified credential to the profile created on its first sign-in.
type Resolver struct {
	conf   *core.Config
	grants GrantLookup
	logger core.Logger
}

func NewResolver(conf *core.Config, grants GrantLookup, logger core.Logger) *Resolver {
	return &Resolver{conf: conf, grants: grants, logger: logger}
}

// Resolve applies, in order: owner emails, school whitelist, demo usernames, individual student.
func (r *Resolver) Resolve(ctx context.Context, id Identity) User {
	usr := User{
		UID:         id.UID,
		Email:       core.CleanString(id.Email, true /* lower */),
		DisplayName: displayName(id),
		Username:    core.CleanString(id.Username, true /* lower */),
	}

	var grant Grant
	switch {
	case r.conf.IsOwnerEmail(usr.Email):
		grant = Grant{Role: RoleOwner, TenantType: TenantOwner}
	case r.lookupGrant(ctx, usr.Email, &grant):
	case r.conf.Tenancy.DemoMode && usr.Username != "":
		grant = DemoGrant(usr.Username, r.conf.Tenancy.DemoSchoolID)
	default:
		grant = Grant{Role: RoleStudent, TenantType: TenantIndividual}
	}
	grant.apply(&usr)
	return usr
}

func (r *Resolver) lookupGrant(ctx context.Context, email string, grant *Grant) bool {
	if r.grants == nil || email == "" {
		return false
	}
	g, err := r.grants.LookupGrant(ctx, email)
	if err != nil {
		if errors.Cause(err) != ErrNoGrant {
			r.logger.Warn(fmt.Sprintf("whitelist lookup failed for %s: %v", email, err), err)
		}
		return false
	}
	if g.Role == "" {
		g.Role = RoleStudent
	}
	g.TenantType = TenantSchool
	*grant = g
	return true
}

func (g Grant) apply(usr *User) {
	usr.Role = g.Role
	usr.TenantType = g.TenantType
	usr.SchoolID = g.SchoolID
	usr.TenantID = g.SchoolID
	usr.Section = g.Section
	usr.ClassID = g.ClassID
	usr.PaidClasses = NewPaidClasses(g.AllowedClasses...)
}

// DemoGrant maps a demo username to its console. The first matching keyword wins.
func DemoGrant(username, schoolID string) Grant {
	uname := strings.ToLower(username)
	school := func(role, classID string) Grant {
		return Grant{Role: role, TenantType: TenantSchool, SchoolID: schoolID, ClassID: classID}
	}

	switch {
	case strings.Contains(uname, "dps.ready4exam"), strings.Contains(uname, "admin"):
		return school(RoleAdmin, "")
	case strings.Contains(uname, "teacher"):
		return school(RoleTeacher, "")
	case strings.Contains(uname, "principal"):
		return school(RolePrincipal, "")
	case strings.Contains(uname, "parent"):
		return school(RoleParent, "")
	case strings.Contains(uname, "student9"), strings.Contains(uname, "student"):
		return school(RoleStudent, "9")
	default:
		return Grant{Role: RoleStudent, TenantType: TenantIndividual}
	}
}

func displayName(id Identity) string {
	if name := core.CleanString(id.DisplayName); name != "" {
		return name
	}
	if id.Username != "" {
		return core.CleanString(id.Username)
	}
	if i := strings.Index(id.Email, "@"); i > 0 {
		return id.Email[:i]
	}
	return "Student"
}
