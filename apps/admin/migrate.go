package main

import (
	"github.com/trezcool/classroom/storage/database"
)

var runMigrationsFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	return runMigrationsFunc(cli.db, args[0], false /* quiet */, args[1:]...)
}
