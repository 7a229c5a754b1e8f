package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/storage/database"
)

// repository holds the default executor (usually the *sqlx.DB pool); methods accept a transaction instead.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return exec.GetContext(ctx, dest, exec.Rebind(query), args...)
}

func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return exec.SelectContext(ctx, dest, exec.Rebind(query), args...)
}

// execAffecting runs a write and reports whether any row was affected.
func (repo repository) execAffecting(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (bool, error) {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// trapNoRowsErr maps "no rows" to notFound and wraps everything else with msg.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapConstraintErr maps a dangling reference to notFound and a rejected CHECK or NOT NULL
// to a *core.ValidationError; anything else is wrapped with msg.
func trapConstraintErr(err error, notFound error, msg string) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return notFound
	case database.IsCheckViolation(err), database.IsNotNullViolation(err):
		return core.NewValidationError(errors.Wrap(err, msg))
	default:
		return errors.Wrap(err, msg)
	}
}

var _ core.DBExecutor = (*sqlx.DB)(nil)
