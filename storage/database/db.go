package database

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/fs"
)

const (
	sqliteDriver   = "sqlite"
	postgresDriver = "postgres"
)

// goose keeps its dialect & FS in package state
var gooseMu sync.Mutex

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   postgresDriver,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(postgresDriver, u.String())
}

// OpenSQLite opens (creating it if needed) the SQLite database file at path.
// Foreign keys are enforced and a single connection serializes writers.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")

	db, err := sqlx.Open(sqliteDriver, "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Open opens the database of the configured engine.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case core.EngineSQLite:
		path := conf.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(conf.WorkDir, path)
		}
		return OpenSQLite(path)
	case core.EnginePostgres:
		db, err := open(conf.Database.Name, false, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
		if err = ping(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		q := fmt.Sprintf(
			"CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
			pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password),
		)
		if _, err := db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name); err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err := db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the postgres app user & database. SQLite files are created on Open.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != core.EnginePostgres {
		return nil
	}

	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return err
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(appDB, conf)
}

func gooseDialect(db *sqlx.DB) (dialect, dir string, err error) {
	switch db.DriverName() {
	case sqliteDriver:
		return "sqlite3", "migrations/sqlite3", nil
	case postgresDriver:
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", errors.Errorf("no migrations for driver %q", db.DriverName())
	}
}

// Run runs a goose command (up, down, status, ...) against the migrations of db's dialect.
func Run(db *sqlx.DB, command string, quiet bool, args ...string) error {
	dialect, dir, err := gooseDialect(db)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(appfs.FS)
	if quiet {
		goose.SetLogger(log.New(io.Discard, "", 0))
	} else {
		goose.SetLogger(log.New(os.Stdout, "", log.LstdFlags))
	}
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	return goose.Run(command, db.DB, dir, args...)
}

func Migrate(db *sqlx.DB, quiet bool) error {
	if err := Run(db, "up", quiet); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

func matchesAny(s string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if strings.Contains(s, name) {
			return true
		}
	}
	return false
}

func constraintViolation(err error, sqliteCodes []int, pgCode pq.ErrorCode, names []string) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		for _, code := range sqliteCodes {
			if sqliteErr.Code() == code {
				return matchesAny(sqliteErr.Error(), names)
			}
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgCode && matchesAny(pqErr.Constraint+" "+pqErr.Message, names)
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE (or PRIMARY KEY) violation.
// When names are given, the violated constraint must mention one of them (e.g. a column name).
func IsUniqueViolation(err error, names ...string) bool {
	return constraintViolation(
		err,
		[]int{sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY},
		"23505",
		names,
	)
}

func IsCheckViolation(err error, names ...string) bool {
	return constraintViolation(err, []int{sqlite3.SQLITE_CONSTRAINT_CHECK}, "23514", names)
}

func IsForeignKeyViolation(err error) bool {
	return constraintViolation(err, []int{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY}, "23503", nil)
}

func IsNotNullViolation(err error) bool {
	return constraintViolation(err, []int{sqlite3.SQLITE_CONSTRAINT_NOTNULL}, "23502", nil)
}
