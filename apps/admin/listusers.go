package main

import (
	"context"

	"github.com/trezcool/classroom/core/user"
)

// listUsers prints every user, optionally only those with the given role.
func (cli *commandLine) listUsers(role user.Role) error {
	usrs, err := cli.usrSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, usr := range usrs {
		if role != "" && usr.Role != role {
			continue
		}
		cli.printf("%d\t%s\t%s\t%s\n", usr.ID, usr.Role, usr.Email, usr.FullName)
	}
	return nil
}
