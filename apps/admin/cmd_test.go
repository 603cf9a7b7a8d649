package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
	"github.com/ready4exam/platform/services/email"
	"github.com/ready4exam/platform/storage/database"
	"github.com/ready4exam/platform/storage/inmem"
	"github.com/ready4exam/platform/testutil"
)

var (
	usrRepo user.Repository
	wlRepo  whitelist.Repository
	mailSvc *emailsvc.ConsoleServiceMock
)

func setup(t *testing.T) *commandLine {
	conf := core.NewTestConfig()
	logger = testutil.NewLogger(conf)
	validate, _ := testutil.NewValidator()
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	db, err := inmemdb.Open()
	require.NoError(t, err)
	usrRepo = inmemdb.NewUserRepository(db)
	wlRepo = inmemdb.NewWhitelistRepository(db)

	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	wlSvc := whitelist.NewService(wlRepo, nil, mailSvc, validate, conf, logger)
	usrSvc := user.NewService(usrRepo, user.NewResolver(conf, wlSvc, logger), nil, logger)
	wlSvc.SetSuspender(usrSvc)

	// start CLI
	return &commandLine{
		ctx:      context.Background(),
		conf:     conf,
		db:       sqlx.NewDb(nil, "postgres"),
		usrSvc:   usrSvc,
		wlSvc:    wlSvc,
		validate: validate,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, before func(tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		if before != nil {
			before(tt)
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if errors.Cause(err) != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if !strings.Contains(err.Error(), tt.wantErrStr) {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "onboard: no args", args: []string{"onboard"}, wantErr: errHelp},
		{name: "onboard: no school", args: []string{"onboard", "-file", "roster.csv"}, wantErr: errHelp},
		{name: "revoke: no args", args: []string{"revoke"}, wantErr: errHelp},
		{name: "newquiztable: no args", args: []string{"newquiztable"}, wantErr: errHelp},
		{name: "newquiztable: no grade", args: []string{"newquiztable", "-name", "Motion", "-subject", "Science"}, wantErr: errHelp},
	}, nil)

	assert.True(t, needsDB([]string{"admin", "migrate", "up"}))
	assert.True(t, needsDB([]string{"admin", "newquiztable"}))
	assert.False(t, needsDB([]string{"admin", "revoke"}))
	assert.False(t, needsDB([]string{"admin"}))
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	defer func() { gooseRunFunc = database.RunMigrations }()

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "chapter_index", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}, nil)
}

type pwdExtra struct {
	pwd     string
	confirm string
}

func mockPasswords(tt cliTest) {
	extra, _ := tt.extra.(pwdExtra)
	calls := 0
	readPasswordFunc = func(fd int) ([]byte, error) {
		calls++
		if calls > 1 {
			return []byte(extra.confirm), nil
		}
		return []byte(extra.pwd), nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, user.User{UID: "taken", Username: "taken_demo", Role: user.RoleStudent, TenantType: user.TenantIndividual}, "Secret#123")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "kid_demo"}, wantErr: errHelp},
		{
			name:       "weak password",
			args:       []string{"adduser", "-username", "kid_demo"},
			extra:      pwdExtra{pwd: "12345678", confirm: "12345678"},
			wantErrStr: "'pwdnotallnum' tag",
		},
		{
			name:  "password mismatch",
			args:  []string{"adduser", "-username", "kid_demo"},
			extra:      pwdExtra{pwd: "Xy7#qwerty", confirm: "Xy7#qwertz"},
			wantErrStr: "'eqfield' tag",
		},
		{
			name:       "username taken",
			args:       []string{"adduser", "-username", "Taken_Demo"},
			extra:      pwdExtra{pwd: "Xy7#qwerty", confirm: "Xy7#qwerty"},
			wantErrStr: user.ErrUsernameExists.Error(),
		},
		{name: "demo mapping", args: []string{"adduser", "-username", "teacher_demo"}, extra: pwdExtra{pwd: "Xy7#qwerty", confirm: "Xy7#qwerty"}},
		{name: "explicit role", args: []string{"adduser", "-username", "head_kv", "-role", "principal", "-school", "KV_009"}, extra: pwdExtra{pwd: "Xy7#qwerty", confirm: "Xy7#qwerty"}},
	}, mockPasswords)

	ctx := context.Background()
	usr, err := usrRepo.GetUserByUsername(ctx, "teacher_demo")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.NoError(t, usr.CheckPassword("Xy7#qwerty"))

	usr, err = usrRepo.GetUserByUsername(ctx, "head_kv")
	require.NoError(t, err)
	assert.Equal(t, user.RolePrincipal, usr.Role)
	assert.Equal(t, user.TenantSchool, usr.TenantType)
	assert.Equal(t, "KV_009", usr.SchoolID)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, user.User{UID: "reset-1", Username: "student9_demo", Role: user.RoleStudent, TenantType: user.TenantSchool, SchoolID: "DPS_001"}, "Secret#123")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: pwdExtra{pwd: "Xy7#qwerty"}, wantErr: user.ErrNotFound},
		{
			name:       "weak password",
			args:       []string{"resetpassword", "-username", usr.Username},
			extra:      pwdExtra{pwd: "short"},
			wantErrStr: "'pwdminlen' tag",
		},
		{name: "reset", args: []string{"resetpassword", "-username", "Student9_Demo"}, extra: pwdExtra{pwd: "Xy7#qwerty"}},
	}, mockPasswords)

	refreshed, err := usrRepo.GetUser(context.Background(), usr.UID)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update new password")
	assert.NoError(t, refreshed.CheckPassword("Xy7#qwerty"))
}

func Test_commandLine_onboardAndRevoke(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, user.User{UID: "rev-1", Email: "c@kv.edu", Role: user.RoleStudent, TenantType: user.TenantSchool, SchoolID: "KV_009"})

	dir := t.TempDir()
	roster := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(roster, []byte("Email,Role,Section,AllowedClass\nA@kv.edu,teacher,9-A,\nb@kv.edu,,,10\n"), 0o600))
	bad := filepath.Join(dir, "roster.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF"), 0o600))

	runCLITests(t, cli, []cliTest{
		{name: "missing file", args: []string{"onboard", "-file", filepath.Join(dir, "ghost.csv"), "-school", "KV_009"}, wantErrStr: "open " + filepath.Join(dir, "ghost.csv") + ": no such file or directory"},
		{name: "unsupported file", args: []string{"onboard", "-file", bad, "-school", "KV_009"}, wantErr: whitelist.ErrUnsupportedFile},
		{name: "onboard", args: []string{"onboard", "-file", roster, "-school", "KV_009"}},
		{name: "revoke unknown email", args: []string{"revoke", "-email", "ghost@kv.edu"}},
		{name: "revoke", args: []string{"revoke", "-email", "c@kv.edu"}},
	}, nil)

	ctx := context.Background()
	e, err := wlRepo.GetEntry(ctx, "a@kv.edu")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, e.Role)
	assert.Equal(t, "KV_009", e.SchoolID)
	assert.Len(t, mailSvc.Sent(), 2)

	usr, err := usrRepo.GetUser(ctx, "rev-1")
	require.NoError(t, err)
	assert.True(t, usr.IsSuspended())
}

func Test_commandLine_newQuizTable(t *testing.T) {
	cli := setup(t)

	var got database.QuizTable
	createQuizTableFunc = func(ctx context.Context, db *sqlx.DB, topic, subject, grade string) (database.QuizTable, error) {
		if topic == "question_template" {
			return database.QuizTable{}, database.ErrInvalidTableName
		}
		got = database.QuizTable{TableName: topic, Subject: subject, Grade: grade}
		return got, nil
	}
	defer func() { createQuizTableFunc = database.CreateQuizTable }()

	runCLITests(t, cli, []cliTest{
		{name: "reserved name", args: []string{"newquiztable", "-name", "question_template", "-subject", "Science", "-grade", "9"}, wantErr: database.ErrInvalidTableName},
		{name: "create", args: []string{"newquiztable", "-name", "Motion", "-subject", "Science", "-grade", "9"}},
	}, nil)
	assert.Equal(t, database.QuizTable{TableName: "Motion", Subject: "Science", Grade: "9"}, got)
}
