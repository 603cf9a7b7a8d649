package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	ctx      context.Context
	conf     *core.Config
	db       *sqlx.DB // question bank; only opened for migrate & newquiztable
	usrSvc   *user.Service
	wlSvc    *whitelist.Service
	validate *validator.Validate
}

// needsDB reports whether the command talks to the question bank.
func needsDB(args []string) bool {
	return len(args) > 1 && (args[1] == "migrate" || args[1] == "newquiztable")
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command against the question bank (up, down, status, ...)")
	fmt.Println("  adduser -username USERNAME [-role ROLE] [-school SCHOOL_ID] [-class GRADE] [-email EMAIL] - create a credential account")
	fmt.Println("  resetpassword -username USERNAME - reset a credential account's password")
	fmt.Println("  onboard -file FILE -school SCHOOL_ID - whitelist a CSV/XLSX roster for a school")
	fmt.Println("  revoke -email EMAIL - suspend an email and every profile created for it")
	fmt.Println("  newquiztable -name TOPIC -subject SUBJECT -grade GRADE - create and register a chapter table")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The account's username. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "The account's role. Defaults to the demo username mapping.")
	addUserSchool := addUserCmd.String("school", "", "The account's school id.")
	addUserClass := addUserCmd.String("class", "", "The account's grade (6-12).")
	addUserEmail := addUserCmd.String("email", "", "The account's email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The account's username. The password will be prompted next.")

	onboardCmd := flag.NewFlagSet("onboard", flag.ContinueOnError)
	onboardFile := onboardCmd.String("file", "", "The roster file (.csv or .xlsx).")
	onboardSchool := onboardCmd.String("school", "", "The school id the roster belongs to.")

	revokeCmd := flag.NewFlagSet("revoke", flag.ContinueOnError)
	revokeEmail := revokeCmd.String("email", "", "The email to suspend.")

	newTableCmd := flag.NewFlagSet("newquiztable", flag.ContinueOnError)
	newTableName := newTableCmd.String("name", "", "The chapter topic; slugged into the table name.")
	newTableSubject := newTableCmd.String("subject", "", "The chapter's subject.")
	newTableGrade := newTableCmd.String("grade", "", "The chapter's grade.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword(true)
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewDemoAccount{
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Role:            *addUserRole,
			SchoolID:        *addUserSchool,
			ClassID:         *addUserClass,
			Password:        pwd,
			PasswordConfirm: confirm,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, _, err := cli.promptPassword(false)
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "onboard":
		if err := onboardCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *onboardFile == "" || *onboardSchool == "" {
			onboardCmd.Usage()
			return errHelp
		}
		return cli.onboard(*onboardFile, *onboardSchool)

	case "revoke":
		if err := revokeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *revokeEmail == "" {
			revokeCmd.Usage()
			return errHelp
		}
		return cli.revoke(*revokeEmail)

	case "newquiztable":
		if err := newTableCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *newTableName == "" || *newTableSubject == "" || *newTableGrade == "" {
			newTableCmd.Usage()
			return errHelp
		}
		return cli.newQuizTable(*newTableName, *newTableSubject, *newTableGrade)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(confirm bool) (string, string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil || len(pwd) == 0 || !confirm {
		return string(pwd), "", err
	}

	fmt.Print("Confirm password:")
	again, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	return string(pwd), string(again), nil
}

// operator is the actor the CLI acts as on tenant-scoped services.
func (cli *commandLine) operator() user.User {
	email := "admin-cli"
	if len(cli.conf.Tenancy.OwnerEmails) > 0 {
		email = cli.conf.Tenancy.OwnerEmails[0]
	}
	return user.User{UID: "admin-cli", Email: email, Role: user.RoleOwner, TenantType: user.TenantOwner}
}
