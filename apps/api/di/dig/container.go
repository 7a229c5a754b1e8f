package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/classroom/apps/api/echo"
	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/announcement"
	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/submission"
	"github.com/trezcool/classroom/core/user"
	logsvc "github.com/trezcool/classroom/services/logger"
	"github.com/trezcool/classroom/storage/database"
	sqlxrepos "github.com/trezcool/classroom/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf.TestMode); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(core.NewValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewClassroomRepository, dig.As(new(classroom.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewSubmissionRepository, dig.As(new(submission.Repository))))
	must(c.Provide(sqlxrepos.NewAnnouncementRepository, dig.As(new(announcement.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(classroom.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(submission.NewService))
	must(c.Provide(announcement.NewService))

	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
