package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/classroom"
)

const assignmentSelect = `SELECT id, title, instructions, due_date, points, classroom_id FROM assignments`

type assignmentRepository struct {
	repository
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{repository{exec: exec}}
}

func boilAssignment(asg assignment.Assignment) assignmentRow {
	row := assignmentRow{
		ID:           asg.ID,
		Title:        asg.Title,
		Instructions: null.NewString(asg.Instructions, asg.Instructions != ""),
		Points:       null.IntFromPtr(asg.Points),
		ClassroomID:  asg.ClassroomID,
	}
	if asg.DueDate != nil {
		row.DueDate = null.TimeFrom(asg.DueDate.UTC())
	}
	return row
}

func unboilAssignment(row assignmentRow) assignment.Assignment {
	asg := assignment.Assignment{
		ID:           row.ID,
		Title:        row.Title,
		Instructions: row.Instructions.String,
		Points:       row.Points.Ptr(),
		ClassroomID:  row.ClassroomID,
	}
	if row.DueDate.Valid {
		due := row.DueDate.Time.UTC()
		asg.DueDate = &due
	}
	return asg
}

func unboilAssignments(rows []assignmentRow) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, unboilAssignment(row))
	}
	return asgs
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	ex := repo.getExec(exec)
	row := boilAssignment(asg)
	q := `INSERT INTO assignments (title, instructions, due_date, points, classroom_id) VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := repo.get(ctx, ex, &row.ID, q, row.Title, row.Instructions, row.DueDate, row.Points, row.ClassroomID); err != nil {
		return assignment.Assignment{}, trapConstraintErr(err, classroom.ErrNotFound, "inserting assignment")
	}
	return unboilAssignment(row), nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.get(ctx, repo.getExec(exec), &row, assignmentSelect+` WHERE id = ?`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "selecting assignment by id")
	}
	return unboilAssignment(row), nil
}

func (repo assignmentRepository) QueryClassroomAssignments(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	q := assignmentSelect + ` WHERE classroom_id = ? ORDER BY due_date DESC NULLS LAST, id DESC`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, classroomID); err != nil {
		return nil, errors.Wrap(err, "selecting classroom assignments")
	}
	return unboilAssignments(rows), nil
}

func (repo assignmentRepository) QueryStudentAssignments(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	var rows []assignmentWithClassroomRow
	q := `SELECT a.id, a.title, a.instructions, a.due_date, a.points, a.classroom_id,
	c.id AS "classroom.id", c.name AS "classroom.name", c.section AS "classroom.section",
	c.class_code AS "classroom.class_code", c.teacher_id AS "classroom.teacher_id", ` + userColumns("t", "classroom.teacher") + `
FROM assignments a
JOIN classrooms c ON c.id = a.classroom_id
JOIN users t ON t.id = c.teacher_id
JOIN student_classroom sc ON sc.classroom_id = c.id
WHERE sc.user_id = ?
ORDER BY a.due_date ASC NULLS LAST, a.id ASC`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting student assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asg := unboilAssignment(row.assignmentRow)
		cls := unboilClassroom(row.Classroom)
		asg.Classroom = &cls
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id int, exec ...core.DBExecutor) error {
	deleted, err := repo.execAffecting(ctx, repo.getExec(exec), `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if !deleted {
		return assignment.ErrNotFound
	}
	return nil
}
