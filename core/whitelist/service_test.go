package whitelist_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
	"github.com/ready4exam/platform/services/email"
	"github.com/ready4exam/platform/storage/inmem"
	"github.com/ready4exam/platform/testutil"
)

// batchCounter counts the write batches reaching the repository.
type batchCounter struct {
	whitelist.Repository
	sizes []int
}

func (b *batchCounter) UpsertEntries(ctx context.Context, entries []whitelist.Entry) error {
	b.sizes = append(b.sizes, len(entries))
	return b.Repository.UpsertEntries(ctx, entries)
}

var (
	owner   = user.User{UID: "owner", Email: "owner@ready4exam.com", Role: user.RoleOwner, TenantType: user.TenantOwner}
	admin   = user.User{UID: "admin", Email: "admin@dps.edu", Role: user.RoleAdmin, TenantType: user.TenantSchool, SchoolID: "DPS_001"}
	teacher = user.User{UID: "teacher", Email: "t@dps.edu", Role: user.RoleTeacher, TenantType: user.TenantSchool, SchoolID: "DPS_001"}
	orphan  = user.User{UID: "orphan", Role: user.RoleAdmin, TenantType: user.TenantSchool}
	kvAdmin = user.User{UID: "kv", Email: "admin@kv.edu", Role: user.RoleAdmin, TenantType: user.TenantSchool, SchoolID: "KV_009"}
)

type fixture struct {
	svc     *whitelist.Service
	repo    *batchCounter
	mailSvc *emailsvc.ConsoleServiceMock
	users   *user.Service
	usrRepo user.Repository
}

func setup(t *testing.T, batchSize int) fixture {
	conf := core.NewTestConfig()
	conf.Quiz.WhitelistBatchSize = batchSize
	logger := testutil.NewLogger(conf)
	validate, _ := testutil.NewValidator()
	core.ParseEmailTemplates(conf, logger)

	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := &batchCounter{Repository: inmemdb.NewWhitelistRepository(db)}
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	svc := whitelist.NewService(repo, nil, mailSvc, validate, conf, logger)
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, user.NewResolver(conf, svc, logger), nil, logger)
	svc.SetSuspender(usrSvc)

	for _, usr := range []user.User{
		{UID: "a-dps", Email: "a@dps.edu", Role: user.RoleTeacher, TenantType: user.TenantSchool, SchoolID: "DPS_001"},
		{UID: "a-dps-parent", Email: "a@dps.edu", Role: user.RoleParent, TenantType: user.TenantSchool, SchoolID: "DPS_001"},
		{UID: "victim-kv", Email: "victim@kv.edu", Role: user.RoleTeacher, TenantType: user.TenantSchool, SchoolID: "KV_009"},
		{UID: "owner", Email: "owner@ready4exam.com", Role: user.RoleOwner, TenantType: user.TenantOwner},
	} {
		testutil.CreateUser(t, usrRepo, usr)
	}
	return fixture{svc: svc, repo: repo, mailSvc: mailSvc, users: usrSvc, usrRepo: usrRepo}
}

func assertRole(t *testing.T, f fixture, uid, role string) {
	t.Helper()
	usr, err := f.users.GetByUID(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, role, usr.Role, uid)
}

func TestService_Onboard(t *testing.T) {
	f := setup(t, 2)
	svc, repo, mailSvc := f.svc, f.repo, f.mailSvc
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    user.User
		schoolID string
		entries  []whitelist.NewEntry
		wantErr  error
		wantRes  whitelist.OnboardResult
	}{
		{name: "school admin without school", actor: orphan, entries: []whitelist.NewEntry{{Email: "x@dps.edu"}}, wantErr: user.ErrMissingSchool},
		{name: "another school", actor: kvAdmin, schoolID: "DPS_001", entries: []whitelist.NewEntry{{Email: "x@dps.edu"}}, wantErr: whitelist.ErrForbiddenSchool},
		{
			name:    "owner without school",
			actor:   owner,
			entries: []whitelist.NewEntry{{Email: "x@dps.edu"}},
		},
		{
			name:    "invalid email",
			actor:   admin,
			entries: []whitelist.NewEntry{{Email: "a@dps.edu"}, {Email: "not-an-email"}},
		},
		{
			name:    "role above the actor",
			actor:   teacher,
			entries: []whitelist.NewEntry{{Email: "p@dps.edu", Role: user.RolePrincipal}},
		},
		{
			name:     "suspended role",
			actor:    owner,
			schoolID: "DPS_001",
			entries:  []whitelist.NewEntry{{Email: "p@dps.edu", Role: user.RoleSuspended}},
		},
		{
			name:     "onboard in batches",
			actor:    admin,
			schoolID: "DPS_001",
			entries: []whitelist.NewEntry{
				{Email: "A@dps.edu", Role: "Teacher"},
				{Email: "b@dps.edu", AllowedClasses: []string{" 9 ", ""}},
				{Email: "c@dps.edu", Role: user.RoleParent},
			},
			wantRes: whitelist.OnboardResult{SchoolID: "DPS_001", Onboarded: 3, Invited: 3},
		},
		{
			name:    "owner email",
			actor:   admin,
			entries: []whitelist.NewEntry{{Email: "Owner@Ready4Exam.com", Role: user.RoleTeacher}},
		},
		{
			name:     "owner cannot whitelist an owner email",
			actor:    owner,
			schoolID: "DPS_001",
			entries:  []whitelist.NewEntry{{Email: "owner@ready4exam.com"}},
		},
		{
			name:     "owner onboards any school",
			actor:    owner,
			schoolID: "KV_009",
			entries:  []whitelist.NewEntry{{Email: "a@dps.edu", Role: user.RoleAdmin}, {Email: "d@kv.edu"}},
			wantRes:  whitelist.OnboardResult{SchoolID: "KV_009", Onboarded: 2, Invited: 1},
		},
		{
			name:    "email of another school",
			actor:   admin,
			entries: []whitelist.NewEntry{{Email: "e@dps.edu"}, {Email: "d@kv.edu"}},
			wantErr: whitelist.ErrForbiddenSchool,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Onboard(ctx, tt.actor, tt.schoolID, tt.entries)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantRes.SchoolID == "":
				assert.True(t, core.IsValidationError(err), err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRes, res)
			}
		})
	}

	assert.Equal(t, []int{2, 1, 2}, repo.sizes)
	assert.Len(t, mailSvc.Sent(), 4)

	e, err := svc.Get(ctx, " A@DPS.edu")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, e.Role)
	assert.Equal(t, "KV_009", e.SchoolID)

	e, err = svc.Get(ctx, "d@kv.edu")
	require.NoError(t, err)
	assert.Equal(t, "KV_009", e.SchoolID)
	_, err = svc.Get(ctx, "e@dps.edu")
	assert.Equal(t, whitelist.ErrNotFound, err)

	e, err = svc.Get(ctx, "b@dps.edu")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, e.Role)
	assert.Equal(t, []string{"9"}, e.AllowedClasses)
}

func TestService_ListAndLookup(t *testing.T) {
	svc := setup(t, 0).svc
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Onboard(ctx, owner, "DPS_001", []whitelist.NewEntry{{Email: fmt.Sprintf("s%d@dps.edu", i), Section: "9-A"}})
		require.NoError(t, err)
	}
	_, err := svc.Onboard(ctx, owner, "KV_009", []whitelist.NewEntry{{Email: "k@kv.edu", Role: user.RoleTeacher}})
	require.NoError(t, err)

	entries, err := svc.List(ctx, admin, "", core.DBOrdering{Field: "email"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "s2@dps.edu", entries[0].Email)

	_, err = svc.List(ctx, admin, "KV_009")
	assert.Equal(t, whitelist.ErrForbiddenSchool, err)

	entries, err = svc.List(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	grant, err := svc.LookupGrant(ctx, "K@KV.edu")
	require.NoError(t, err)
	assert.Equal(t, user.Grant{Role: user.RoleTeacher, SchoolID: "KV_009", AllowedClasses: []string{}}, grant)

	_, err = svc.LookupGrant(ctx, "ghost@kv.edu")
	assert.Equal(t, user.ErrNoGrant, err)
}

func TestService_Revoke(t *testing.T) {
	f := setup(t, 0)
	svc := f.svc
	ctx := context.Background()
	testutil.CreateUser(t, f.usrRepo, user.User{UID: "a-kv", Email: "a@dps.edu", Role: user.RoleStudent, TenantType: user.TenantSchool, SchoolID: "KV_009"})
	_, err := svc.Onboard(ctx, admin, "", []whitelist.NewEntry{{Email: "a@dps.edu", Role: user.RoleTeacher}})
	require.NoError(t, err)

	_, err = svc.Revoke(ctx, admin, " ")
	assert.True(t, core.IsValidationError(err), err)

	_, err = svc.Revoke(ctx, kvAdmin, "a@dps.edu")
	assert.Equal(t, whitelist.ErrForbiddenSchool, err)

	_, err = svc.Revoke(ctx, admin, "ghost@dps.edu")
	assert.Equal(t, whitelist.ErrNotFound, err)

	res, err := svc.Revoke(ctx, admin, "A@dps.edu")
	require.NoError(t, err)
	assert.Equal(t, whitelist.RevokeResult{Email: "a@dps.edu", SuspendedUsers: 2, WhitelistRevoked: true}, res)
	assertRole(t, f, "a-dps", user.RoleSuspended)
	assertRole(t, f, "a-dps-parent", user.RoleSuspended)
	assertRole(t, f, "a-kv", user.RoleStudent)

	e, err := svc.Get(ctx, "a@dps.edu")
	require.NoError(t, err)
	assert.True(t, e.IsSuspended())
	assert.Equal(t, "DPS_001", e.SchoolID)

	// a revoked email signs in suspended
	grant, err := svc.LookupGrant(ctx, "a@dps.edu")
	require.NoError(t, err)
	assert.Equal(t, user.RoleSuspended, grant.Role)

	// the owner may revoke emails that were never whitelisted
	res, err = svc.Revoke(ctx, owner, "new@gmail.com")
	require.NoError(t, err)
	assert.True(t, res.WhitelistRevoked)
}

func TestService_crossSchool(t *testing.T) {
	f := setup(t, 0)
	svc := f.svc
	ctx := context.Background()

	_, err := svc.Onboard(ctx, owner, "KV_009", []whitelist.NewEntry{{Email: "victim@kv.edu", Role: user.RoleTeacher}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		run     func() error
		wantErr error // nil -> validation error
	}{
		{
			name: "re-onboard an email of another school",
			run: func() error {
				_, err := svc.Onboard(ctx, admin, "", []whitelist.NewEntry{{Email: "Victim@kv.edu"}})
				return err
			},
			wantErr: whitelist.ErrForbiddenSchool,
		},
		{
			name: "revoke an email of another school",
			run: func() error {
				_, err := svc.Revoke(ctx, admin, "victim@kv.edu")
				return err
			},
			wantErr: whitelist.ErrForbiddenSchool,
		},
		{
			name: "onboard the owner email",
			run: func() error {
				_, err := svc.Onboard(ctx, admin, "", []whitelist.NewEntry{{Email: "owner@ready4exam.com", Role: user.RoleStudent}})
				return err
			},
		},
		{
			name: "school admin revokes the owner email",
			run: func() error {
				_, err := svc.Revoke(ctx, admin, "owner@ready4exam.com")
				return err
			},
		},
		{
			name: "owner revokes the owner email",
			run: func() error {
				_, err := svc.Revoke(ctx, owner, " OWNER@ready4exam.com ")
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			assert.True(t, core.IsValidationError(err), err)
		})
	}

	e, err := svc.Get(ctx, "victim@kv.edu")
	require.NoError(t, err)
	assert.Equal(t, "KV_009", e.SchoolID)
	assert.Equal(t, user.RoleTeacher, e.Role)
	_, err = svc.Get(ctx, "owner@ready4exam.com")
	assert.Equal(t, whitelist.ErrNotFound, err)

	assertRole(t, f, "victim-kv", user.RoleTeacher)
	assertRole(t, f, "owner", user.RoleOwner)

	// the owner revokes across schools
	res, err := svc.Revoke(ctx, owner, "victim@kv.edu")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuspendedUsers)
	assertRole(t, f, "victim-kv", user.RoleSuspended)
}
