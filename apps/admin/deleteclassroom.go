package main

import (
	"context"
)

// deleteClassroom removes the classroom; its assignments, submissions, announcements and memberships go with it.
func (cli *commandLine) deleteClassroom(id int) error {
	if err := cli.clsSvc.Delete(context.Background(), id); err != nil {
		return err
	}
	cli.printf("classroom %d deleted\n", id)
	return nil
}
