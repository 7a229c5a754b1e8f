package main

import (
	"log"
	"os"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
	"github.com/trezcool/classroom/storage/database"
	"github.com/trezcool/classroom/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	// set up services
	validator := core.NewValidator()
	usrRepo := sqlxrepos.NewUserRepository(db)
	clsRepo := sqlxrepos.NewClassroomRepository(db)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(db, usrRepo, validator),
		clsSvc: classroom.NewService(db, clsRepo, usrRepo, validator),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
