package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
)

var classroomSelect = `SELECT c.id, c.name, c.section, c.class_code, c.teacher_id, ` + userColumns("t", "teacher") + `
FROM classrooms c
JOIN users t ON t.id = c.teacher_id`

type classroomRepository struct {
	repository
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(exec core.DBExecutor) *classroomRepository {
	return &classroomRepository{repository{exec: exec}}
}

func boilClassroom(cls classroom.Classroom) classroomRow {
	return classroomRow{
		ID:        cls.ID,
		Name:      cls.Name,
		Section:   null.NewString(cls.Section, cls.Section != ""),
		ClassCode: cls.ClassCode,
		TeacherID: cls.TeacherID,
	}
}

func unboilClassroom(row classroomWithTeacherRow) classroom.Classroom {
	return classroom.Classroom{
		ID:        row.ID,
		Name:      row.Name,
		Section:   row.Section.String,
		ClassCode: row.ClassCode,
		TeacherID: row.TeacherID,
		Teacher:   unboilUser(row.Teacher),
	}
}

func unboilClassrooms(rows []classroomWithTeacherRow) []classroom.Classroom {
	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, unboilClassroom(row))
	}
	return classrooms
}

// CreateClassroom skips the insert on a class_code conflict so a surrounding transaction stays usable for a retry.
func (repo classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom, exec ...core.DBExecutor) (classroom.Classroom, error) {
	ex := repo.getExec(exec)
	row := boilClassroom(cls)
	q := `INSERT INTO classrooms (name, section, class_code, teacher_id) VALUES (?, ?, ?, ?)
ON CONFLICT (class_code) DO NOTHING
RETURNING id`
	if err := repo.get(ctx, ex, &row.ID, q, row.Name, row.Section, row.ClassCode, row.TeacherID); err != nil {
		return classroom.Classroom{}, trapNoRowsErr(err, classroom.ErrClassCodeExists, "inserting classroom")
	}
	return repo.GetClassroomByID(ctx, row.ID, ex)
}

func (repo classroomRepository) GetClassroomByID(ctx context.Context, id int, exec ...core.DBExecutor) (classroom.Classroom, error) {
	var row classroomWithTeacherRow
	if err := repo.get(ctx, repo.getExec(exec), &row, classroomSelect+` WHERE c.id = ?`, id); err != nil {
		return classroom.Classroom{}, trapNoRowsErr(err, classroom.ErrNotFound, "selecting classroom by id")
	}
	return unboilClassroom(row), nil
}

func (repo classroomRepository) GetClassroomByCode(ctx context.Context, code string, exec ...core.DBExecutor) (classroom.Classroom, error) {
	var row classroomWithTeacherRow
	if err := repo.get(ctx, repo.getExec(exec), &row, classroomSelect+` WHERE c.class_code = ?`, code); err != nil {
		return classroom.Classroom{}, trapNoRowsErr(err, classroom.ErrNotFound, "selecting classroom by code")
	}
	return unboilClassroom(row), nil
}

func (repo classroomRepository) QueryTeacherClassrooms(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]classroom.Classroom, error) {
	var rows []classroomWithTeacherRow
	q := classroomSelect + ` WHERE c.teacher_id = ? ORDER BY c.id`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "selecting teacher classrooms")
	}
	return unboilClassrooms(rows), nil
}

func (repo classroomRepository) QueryStudentClassrooms(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]classroom.Classroom, error) {
	var rows []classroomWithTeacherRow
	q := classroomSelect + `
JOIN student_classroom sc ON sc.classroom_id = c.id
WHERE sc.user_id = ?
ORDER BY c.id`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting student classrooms")
	}
	return unboilClassrooms(rows), nil
}

func (repo classroomRepository) QueryClassroomStudents(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	q := `SELECT u.id, u.email, u.full_name, u.role
FROM users u
JOIN student_classroom sc ON sc.user_id = u.id
WHERE sc.classroom_id = ?
ORDER BY u.id`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, classroomID); err != nil {
		return nil, errors.Wrap(err, "selecting classroom students")
	}
	return unboilUsers(rows), nil
}

func (repo classroomRepository) AddStudent(ctx context.Context, classroomID, studentID int, exec ...core.DBExecutor) (bool, error) {
	added, err := repo.execAffecting(
		ctx, repo.getExec(exec),
		`INSERT INTO student_classroom (user_id, classroom_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		studentID, classroomID,
	)
	if err != nil {
		return false, errors.Wrap(err, "inserting classroom student")
	}
	return added, nil
}

func (repo classroomRepository) IsStudent(ctx context.Context, classroomID, studentID int, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM student_classroom WHERE classroom_id = ? AND user_id = ?)`
	if err := repo.get(ctx, repo.getExec(exec), &exists, q, classroomID, studentID); err != nil {
		return false, errors.Wrap(err, "checking classroom student")
	}
	return exists, nil
}

func (repo classroomRepository) DeleteClassroom(ctx context.Context, id int, exec ...core.DBExecutor) error {
	deleted, err := repo.execAffecting(ctx, repo.getExec(exec), `DELETE FROM classrooms WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	if !deleted {
		return classroom.ErrNotFound
	}
	return nil
}
