package submission

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("submission not found")

	errNotStudent = core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "only students can submit work"})
)

type (
	Repository interface {
		// UpsertSubmission creates the (assignment, student) submission or replaces its content & timestamp.
		UpsertSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByID(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, studentID int, exec ...core.DBExecutor) (Submission, error)
		// QueryAssignmentSubmissions orders by timestamp, then ID, each with its student.
		QueryAssignmentSubmissions(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]Submission, error)
		SetGrade(ctx context.Context, id int, grade float64, exec ...core.DBExecutor) (Submission, error)
	}

	Service struct {
		db        core.DB
		repo      Repository
		asgRepo   assignment.Repository
		usrRepo   user.Repository
		validator *core.Validator
	}
)

func NewService(
	db core.DB,
	repo Repository,
	asgRepo assignment.Repository,
	usrRepo user.Repository,
	validator *core.Validator,
) *Service {
	return &Service{db: db, repo: repo, asgRepo: asgRepo, usrRepo: usrRepo, validator: validator}
}

// SubmitOrUpdate stores the student's work for the assignment; a resubmission replaces the content
// and refreshes the timestamp but keeps any grade.
func (svc *Service) SubmitOrUpdate(ctx context.Context, assignmentID, studentID int, content string) (Submission, error) {
	sw := SubmitWork{Content: content}
	if err := svc.validator.Struct(sw); err != nil {
		return Submission{}, err
	}

	var sub Submission
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.asgRepo.GetAssignmentByID(ctx, assignmentID, tx); err != nil {
			return err
		}
		student, err := svc.usrRepo.GetUserByID(ctx, studentID, tx)
		if err != nil {
			return err
		}
		if !student.IsStudent() {
			return errNotStudent
		}
		sub, err = svc.repo.UpsertSubmission(ctx, Submission{
			Content:      sw.Content,
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Timestamp:    core.NowFunc(),
		}, tx)
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) ListForAssignment(ctx context.Context, assignmentID int) ([]Submission, error) {
	var subs []Submission
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.asgRepo.GetAssignmentByID(ctx, assignmentID, tx); err != nil {
			return err
		}
		var err error
		subs, err = svc.repo.QueryAssignmentSubmissions(ctx, assignmentID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Get returns the student's submission for the assignment. found is false when nothing was submitted yet.
func (svc *Service) Get(ctx context.Context, assignmentID, studentID int) (sub Submission, found bool, err error) {
	sub, err = svc.repo.GetSubmission(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Submission{}, false, nil
		}
		return Submission{}, false, err
	}
	return sub, true, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

// Grade sets the submission's grade; an invalid grade leaves the stored one untouched.
func (svc *Service) Grade(ctx context.Context, id int, grade float64) (Submission, error) {
	gr := GradeRequest{Grade: &grade}
	if err := svc.validator.Struct(gr); err != nil {
		return Submission{}, err
	}
	return svc.repo.SetGrade(ctx, id, grade)
}
