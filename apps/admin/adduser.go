package main

import (
	"fmt"

	"github.com/ready4exam/platform/core/user"
)

// addUser creates a credential account
func (cli *commandLine) addUser(na user.NewDemoAccount) error {
	if err := na.Validate(cli.ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.CreateDemoAccount(cli.ctx, na)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s, %s) -> %s\n", usr.Username, usr.Role, usr.TenantType, user.Route(usr))
	return nil
}
