package sqlxrepos

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Rows mirror the tables; nested structs are filled from `prefix.column` aliases.
type (
	userRow struct {
		ID           int         `db:"id"`
		Email        string      `db:"email"`
		PasswordHash []byte      `db:"password_hash"`
		FullName     null.String `db:"full_name"`
		Role         string      `db:"role"`
	}

	classroomRow struct {
		ID        int         `db:"id"`
		Name      string      `db:"name"`
		Section   null.String `db:"section"`
		ClassCode string      `db:"class_code"`
		TeacherID int         `db:"teacher_id"`
	}

	classroomWithTeacherRow struct {
		classroomRow
		Teacher userRow `db:"teacher"`
	}

	assignmentRow struct {
		ID           int         `db:"id"`
		Title        string      `db:"title"`
		Instructions null.String `db:"instructions"`
		DueDate      null.Time   `db:"due_date"`
		Points       null.Int    `db:"points"`
		ClassroomID  int         `db:"classroom_id"`
	}

	assignmentWithClassroomRow struct {
		assignmentRow
		Classroom classroomWithTeacherRow `db:"classroom"`
	}

	submissionRow struct {
		ID           int          `db:"id"`
		Content      null.String  `db:"content"`
		AssignmentID int          `db:"assignment_id"`
		StudentID    int          `db:"student_id"`
		Grade        null.Float64 `db:"grade"`
		Timestamp    time.Time    `db:"timestamp"`
	}

	submissionWithStudentRow struct {
		submissionRow
		Student userRow `db:"student"`
	}

	announcementRow struct {
		ID          int       `db:"id"`
		Content     string    `db:"content"`
		ClassroomID int       `db:"classroom_id"`
		AuthorID    int       `db:"author_id"`
		Timestamp   time.Time `db:"timestamp"`
	}

	announcementWithAuthorRow struct {
		announcementRow
		Author userRow `db:"author"`
	}
)

// userColumns selects a users row aliased as `alias` into a nested userRow named `prefix`.
func userColumns(alias, prefix string) string {
	return alias + `.id AS "` + prefix + `.id", ` +
		alias + `.email AS "` + prefix + `.email", ` +
		alias + `.full_name AS "` + prefix + `.full_name", ` +
		alias + `.role AS "` + prefix + `.role"`
}
