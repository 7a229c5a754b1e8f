package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/submission"
)

const submissionSelect = `SELECT id, content, assignment_id, student_id, grade, timestamp FROM submissions`

type submissionRepository struct {
	repository
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{repository{exec: exec}}
}

func boilSubmission(sub submission.Submission) submissionRow {
	return submissionRow{
		ID:           sub.ID,
		Content:      null.NewString(sub.Content, sub.Content != ""),
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Grade:        null.Float64FromPtr(sub.Grade),
		Timestamp:    sub.Timestamp.UTC(),
	}
}

func unboilSubmission(row submissionRow) submission.Submission {
	return submission.Submission{
		ID:           row.ID,
		Content:      row.Content.String,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Grade:        row.Grade.Ptr(),
		Timestamp:    row.Timestamp.UTC(),
	}
}

// UpsertSubmission relies on the (assignment_id, student_id) unique constraint, so concurrent
// submissions of the same student end up in a single row.
func (repo submissionRepository) UpsertSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	ex := repo.getExec(exec)
	row := boilSubmission(sub)
	q := `INSERT INTO submissions (content, assignment_id, student_id, timestamp) VALUES (?, ?, ?, ?)
ON CONFLICT (assignment_id, student_id) DO UPDATE SET content = excluded.content, timestamp = excluded.timestamp
RETURNING id`
	if err := repo.get(ctx, ex, &row.ID, q, row.Content, row.AssignmentID, row.StudentID, row.Timestamp); err != nil {
		return submission.Submission{}, trapConstraintErr(err, assignment.ErrNotFound, "upserting submission")
	}
	return repo.GetSubmissionByID(ctx, row.ID, ex)
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id int, exec ...core.DBExecutor) (submission.Submission, error) {
	var row submissionRow
	if err := repo.get(ctx, repo.getExec(exec), &row, submissionSelect+` WHERE id = ?`, id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "selecting submission by id")
	}
	return unboilSubmission(row), nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, assignmentID, studentID int, exec ...core.DBExecutor) (submission.Submission, error) {
	var row submissionRow
	q := submissionSelect + ` WHERE assignment_id = ? AND student_id = ?`
	if err := repo.get(ctx, repo.getExec(exec), &row, q, assignmentID, studentID); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "selecting submission")
	}
	return unboilSubmission(row), nil
}

func (repo submissionRepository) QueryAssignmentSubmissions(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]submission.Submission, error) {
	var rows []submissionWithStudentRow
	q := `SELECT s.id, s.content, s.assignment_id, s.student_id, s.grade, s.timestamp, ` + userColumns("u", "student") + `
FROM submissions s
JOIN users u ON u.id = s.student_id
WHERE s.assignment_id = ?
ORDER BY s.timestamp ASC, s.id ASC`
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "selecting assignment submissions")
	}

	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		sub := unboilSubmission(row.submissionRow)
		student := unboilUser(row.Student)
		sub.Student = &student
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo submissionRepository) SetGrade(ctx context.Context, id int, grade float64, exec ...core.DBExecutor) (submission.Submission, error) {
	ex := repo.getExec(exec)
	updated, err := repo.execAffecting(ctx, ex, `UPDATE submissions SET grade = ? WHERE id = ?`, grade, id)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission grade")
	}
	if !updated {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmissionByID(ctx, id, ex)
}
