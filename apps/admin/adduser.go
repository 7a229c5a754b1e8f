package main

import (
	"context"

	"github.com/trezcool/classroom/core/user"
)

func (cli *commandLine) addUser(email, role, name, pwd, confirm string) error {
	usr, err := cli.usrSvc.Register(context.Background(), user.NewUser{
		Email:           email,
		FullName:        name,
		Password:        pwd,
		PasswordConfirm: confirm,
		Role:            role,
	})
	if err != nil {
		return err
	}
	cli.printf("%s %q created (id=%d)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
