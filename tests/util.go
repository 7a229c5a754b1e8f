package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
	"github.com/trezcool/classroom/storage/database"
)

// PrepareDB opens a migrated SQLite database in the test's temp dir; it is closed on cleanup.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "opening database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db, true /* quiet */), "migrating database")
	return db
}

func CreateUser(t *testing.T, repo user.Repository, email, pwd string, role user.Role, fullName ...string) user.User {
	t.Helper()

	usr := user.User{
		Email: email,
		Role:  role,
	}
	if len(fullName) > 0 {
		usr.FullName = fullName[0]
	}
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd), "createUser()")
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err, "createUser()")
	return usr
}

// CreateClassroom inserts a classroom with the given join code, bypassing code generation.
func CreateClassroom(t *testing.T, repo classroom.Repository, name, code string, teacher user.User) classroom.Classroom {
	t.Helper()

	cls, err := repo.CreateClassroom(context.Background(), classroom.Classroom{
		Name:      name,
		ClassCode: code,
		TeacherID: teacher.ID,
	})
	require.NoError(t, err, "createClassroom()")
	return cls
}

func AddStudent(t *testing.T, repo classroom.Repository, cls classroom.Classroom, student user.User) {
	t.Helper()

	added, err := repo.AddStudent(context.Background(), cls.ID, student.ID)
	require.NoError(t, err, "addStudent()")
	require.True(t, added, "addStudent()")
}
