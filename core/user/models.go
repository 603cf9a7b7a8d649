package user

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ready4exam/platform/core"
)

// Roles
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RolePrincipal = "principal"
	RoleTeacher   = "teacher"
	RoleParent    = "parent"
	RoleStudent   = "student"
	RoleSuspended = "suspended"
)

// Tenant types
const (
	TenantIndividual = "individual"
	TenantSchool     = "school"
	TenantOwner      = "owner"
)

var (
	// AllRoles are the roles a profile or a whitelist entry may hold.
	AllRoles = []string{RoleOwner, RoleAdmin, RolePrincipal, RoleTeacher, RoleParent, RoleStudent, RoleSuspended}

	// SchoolRoles are the roles a school may grant through its whitelist.
	SchoolRoles = []string{RoleAdmin, RolePrincipal, RoleTeacher, RoleParent, RoleStudent}

	rolePriorities = map[string]int{
		RoleOwner: 40,

		// School staff: 30 - 11
		RoleAdmin:     30,
		RolePrincipal: 29,
		RoleTeacher:   11,

		// Families: 10 - 1
		RoleParent:  5,
		RoleStudent: 1,

		RoleSuspended: 0,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Parent", Value: RoleParent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Principal", Value: RolePrincipal},
		{Name: "School Admin", Value: RoleAdmin},
		{Name: "Owner", Value: RoleOwner},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

func IsRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Identity is what a verified credential tells us about its holder.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Username    string // demo credential accounts only
}

// Grant is what a credential is entitled to before its profile exists.
type Grant struct {
	Role           string
	TenantType     string
	SchoolID       string
	Section        string
	ClassID        string
	AllowedClasses []string
}

// User is a profile document (users/{uid}).
type User struct {
	UID          string          `json:"uid" firestore:"uid"`
	Email        string          `json:"email" firestore:"email"`
	DisplayName  string          `json:"displayName" firestore:"displayName"`
	Username     string          `json:"username,omitempty" firestore:"username,omitempty"`
	Role         string          `json:"role" firestore:"role"`
	TenantType   string          `json:"tenantType" firestore:"tenantType"`
	TenantID     string          `json:"tenantId,omitempty" firestore:"tenantId"`
	SchoolID     string          `json:"school_id,omitempty" firestore:"school_id"`
	ClassID      string          `json:"classId,omitempty" firestore:"classId"`
	Section      string          `json:"section,omitempty" firestore:"section"`
	PaidClasses  map[string]bool `json:"paidClasses" firestore:"paidClasses"`
	PasswordHash []byte          `json:"-" firestore:"passwordHash,omitempty"`
	CreatedAt    time.Time       `json:"createdAt" firestore:"createdAt"`
	LastLogin    time.Time       `json:"lastLogin" firestore:"lastLogin"`
}

// NewPaidClasses returns the grade map with every served grade locked.
func NewPaidClasses(unlocked ...string) map[string]bool {
	paid := make(map[string]bool, core.MaxGrade-core.MinGrade+1)
	for g := core.MinGrade; g <= core.MaxGrade; g++ {
		paid[strconv.Itoa(g)] = false
	}
	for _, g := range unlocked {
		if g = core.CleanString(g); g != "" {
			paid[g] = true
		}
	}
	return paid
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsOwner() bool {
	return u.Role == RoleOwner || u.TenantType == TenantOwner
}

func (u User) IsSuspended() bool {
	return u.Role == RoleSuspended
}

func (u User) IsSchoolMember() bool {
	return u.TenantType == TenantSchool
}

// HasPaidClass reports whether the grade is unlocked for the user.
func (u User) HasPaidClass(grade string) bool {
	return u.IsOwner() || u.PaidClasses[core.CleanString(grade)]
}

// CheckRole is the console access check: owners and admins may enter any console.
func CheckRole(u User, required string) bool {
	if u.IsOwner() || u.Role == RoleAdmin {
		return true
	}
	return u.Role == required
}

// Guard is the strict page guard: only the owner bypasses the role check.
func Guard(u User, required string) error {
	if u.IsOwner() {
		return nil
	}
	if u.IsSuspended() {
		return ErrSuspended
	}
	if required != "" && u.Role != required {
		return ErrRoleMismatch
	}
	if u.IsSchoolMember() && u.SchoolID == "" {
		return ErrMissingSchool
	}
	return nil
}

// Route returns the console a profile lands on after sign-in, "" when it should stay put.
func Route(u User) string {
	switch {
	case u.TenantType == TenantOwner:
		return "/owner-console.html"
	case u.TenantType == TenantSchool:
		return fmt.Sprintf("/app/consoles/%s.html?schoolId=%s", u.Role, url.QueryEscape(u.SchoolID))
	case u.Role == RoleStudent:
		return "/app/consoles/student.html"
	default:
		return ""
	}
}

// NewDemoAccount contains information needed to create a demo credential account.
type NewDemoAccount struct {
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            string `json:"role" validate:"omitempty,role"`
	SchoolID        string `json:"school_id"`
	ClassID         string `json:"class_id" validate:"omitempty,grade"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type QueryFilter struct {
	Email      string
	TenantType string
	SchoolID   string
}
