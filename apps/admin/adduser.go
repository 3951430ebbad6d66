package main

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, name, role, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	if !isRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil && !core.IsNotFound(err) {
		return err
	}
	exists := err == nil
	if !exists {
		if usr, err = cli.usrSvc.GetByEmail(ctx, email); err != nil && !core.IsNotFound(err) {
			return err
		}
		exists = err == nil
	}

	if exists {
		if err := cli.usrSvc.CheckUniqueness(uname, email, usr); err != nil {
			return err
		}
		candidate := usr
		candidate.Username, candidate.Email = uname, email
		if name != "" {
			candidate.FullName = null.StringFrom(name)
		}
		if err := user.CheckPasswordPolicy(pwd, candidate); err != nil {
			return err
		}
		active := true
		uu := user.UpdateUser{Email: email, Username: uname, FullName: name, Password: pwd, Role: role, IsActive: &active}
		if _, err := cli.usrSvc.Update(ctx, usr, uu); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %q updated\n", uname)
		return nil
	}

	nu := user.NewUser{Email: email, Username: uname, FullName: name, Password: pwd, Role: role}
	if err := user.CheckPasswordPolicy(pwd, user.User{Email: email, Username: uname, FullName: null.StringFrom(name)}); err != nil {
		return err
	}
	if err := cli.usrSvc.CheckUniqueness(uname, email); err != nil {
		return err
	}
	if _, err := cli.usrSvc.Create(ctx, nu); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created\n", uname)
	return nil
}

func isRole(role string) bool {
	for _, r := range user.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
