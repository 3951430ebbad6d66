package main

import (
	"context"

	"github.com/trezcool/aquaflow/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err := user.CheckPasswordPolicy(pwd, usr); err != nil {
		return err
	}
	_, err = cli.usrSvc.ResetPassword(ctx, usr, pwd)
	return err
}
