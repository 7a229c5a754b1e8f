package assignment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Assignment, error)
		// QueryClassroomAssignments orders by due date DESC (NULLs last), then ID DESC.
		QueryClassroomAssignments(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]Assignment, error)
		// QueryStudentAssignments orders by due date ASC (NULLs last), then ID ASC, each with its classroom.
		QueryStudentAssignments(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Assignment, error)
		DeleteAssignment(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		db        core.DB
		repo      Repository
		clsRepo   classroom.Repository
		validator *core.Validator
	}
)

func NewService(db core.DB, repo Repository, clsRepo classroom.Repository, validator *core.Validator) *Service {
	return &Service{db: db, repo: repo, clsRepo: clsRepo, validator: validator}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	na.Clean()
	if err := svc.validator.Struct(na); err != nil {
		return Assignment{}, err
	}

	var asg Assignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.clsRepo.GetClassroomByID(ctx, na.ClassroomID, tx); err != nil {
			return err
		}
		var err error
		asg, err = svc.repo.CreateAssignment(ctx, Assignment{
			Title:        na.Title,
			Instructions: na.Instructions,
			DueDate:      na.DueDate,
			Points:       na.Points,
			ClassroomID:  na.ClassroomID,
		}, tx)
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *Service) ListForClassroom(ctx context.Context, classroomID int) ([]Assignment, error) {
	var asgs []Assignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.clsRepo.GetClassroomByID(ctx, classroomID, tx); err != nil {
			return err
		}
		var err error
		asgs, err = svc.repo.QueryClassroomAssignments(ctx, classroomID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return asgs, nil
}

// ListForStudent returns the assignments of every classroom the student joined. Teachers get none.
func (svc *Service) ListForStudent(ctx context.Context, usr user.User) ([]Assignment, error) {
	switch usr.Role {
	case user.RoleStudent:
		return svc.repo.QueryStudentAssignments(ctx, usr.ID)
	case user.RoleTeacher:
		return []Assignment{}, nil
	default:
		return nil, errors.Errorf("unknown role %q", usr.Role)
	}
}

func (svc *Service) Get(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// Delete removes the assignment and its submissions.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteAssignment(ctx, id)
}
