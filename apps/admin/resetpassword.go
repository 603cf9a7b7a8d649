package main

import (
	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	usr, err := cli.usrSvc.GetByUsername(cli.ctx, uname)
	if err != nil {
		return err
	}
	if err = user.ValidatePassword(cli.validate, pwd, usr.Username, usr.Email); err != nil {
		return err
	}
	return cli.usrSvc.SetPassword(cli.ctx, uname, pwd)
}
