package whitelist

import (
	"time"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

// Entry pre-approves an email for a school (whitelist/{email}).
type Entry struct {
	Email          string    `json:"email" firestore:"email"`
	Role           string    `json:"role" firestore:"role"`
	SchoolID       string    `json:"schoolId" firestore:"schoolId"`
	Section        string    `json:"section" firestore:"section"`
	AllowedClasses []string  `json:"allowedClasses" firestore:"allowedClasses"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (e Entry) IsSuspended() bool { return e.Role == user.RoleSuspended }

func (e Entry) grant() user.Grant {
	return user.Grant{
		Role:           e.Role,
		SchoolID:       e.SchoolID,
		Section:        e.Section,
		AllowedClasses: e.AllowedClasses,
	}
}

// NewEntry is one onboarding row.
type NewEntry struct {
	Email          string   `json:"email" validate:"required,email"`
	Role           string   `json:"role" validate:"omitempty,role"`
	Section        string   `json:"section"`
	AllowedClasses []string `json:"allowed_classes" validate:"dive,grade"`
}

func (ne *NewEntry) Clean() {
	ne.Email = core.CleanString(ne.Email, true /* lower */)
	ne.Role = core.CleanString(ne.Role, true /* lower */)
	ne.Section = core.CleanString(ne.Section)
	if ne.Role == "" {
		ne.Role = user.RoleStudent
	}
	classes := make([]string, 0, len(ne.AllowedClasses))
	for _, c := range ne.AllowedClasses {
		if c = core.CleanString(c); c != "" {
			classes = append(classes, c)
		}
	}
	ne.AllowedClasses = classes
}

// OnboardRequest is the JSON body of a whitelist import.
type OnboardRequest struct {
	SchoolID string     `json:"school_id"`
	Entries  []NewEntry `json:"entries" validate:"required,min=1,dive"`
}

type OnboardResult struct {
	SchoolID  string `json:"school_id"`
	Onboarded int    `json:"onboarded"`
	Invited   int    `json:"invited"`
}

type RevokeResult struct {
	Email            string `json:"email"`
	SuspendedUsers   int    `json:"suspended_users"`
	WhitelistRevoked bool   `json:"whitelist_revoked"`
}
