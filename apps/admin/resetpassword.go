package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	usr, err := cli.usrSvc.ResetPassword(context.Background(), email, pwd)
	if err != nil {
		return err
	}
	cli.printf("password of %q reset\n", usr.Email)
	return nil
}
