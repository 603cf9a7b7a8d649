package main

import (
	"fmt"
	"os"

	"github.com/ready4exam/platform/core/whitelist"
)

func (cli *commandLine) onboard(path, schoolID string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := whitelist.Parse(f.Name(), f)
	if err != nil {
		return err
	}
	res, err := cli.wlSvc.Onboard(cli.ctx, cli.operator(), schoolID, entries)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d entries onboarded, %d invited\n", res.SchoolID, res.Onboarded, res.Invited)
	return nil
}

func (cli *commandLine) revoke(email string) error {
	res, err := cli.wlSvc.Revoke(cli.ctx, cli.operator(), email)
	if err != nil {
		return err
	}
	fmt.Printf("%s revoked, %d profiles suspended\n", res.Email, res.SuspendedUsers)
	return nil
}
