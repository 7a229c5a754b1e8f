package classroom

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("classroom not found")
	ErrInvalidCode     = core.NewNotFoundError("invalid class code")
	ErrAlreadyMember   = core.NewConflictError("you are already in this class", "class_code")
	ErrClassCodeExists = core.NewConflictError("a classroom with this class code already exists", "class_code")

	errNotTeacher = core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "only teachers can create classrooms"})
	errNotStudent = core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "only students can join classrooms"})
)

type (
	Repository interface {
		// CreateClassroom returns ErrClassCodeExists when cls.ClassCode is taken.
		CreateClassroom(ctx context.Context, cls Classroom, exec ...core.DBExecutor) (Classroom, error)
		GetClassroomByID(ctx context.Context, id int, exec ...core.DBExecutor) (Classroom, error)
		GetClassroomByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Classroom, error)
		QueryTeacherClassrooms(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]Classroom, error)
		QueryStudentClassrooms(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Classroom, error)
		QueryClassroomStudents(ctx context.Context, classroomID int, exec ...core.DBExecutor) ([]user.User, error)
		// AddStudent reports false when the student is already a member.
		AddStudent(ctx context.Context, classroomID, studentID int, exec ...core.DBExecutor) (bool, error)
		IsStudent(ctx context.Context, classroomID, studentID int, exec ...core.DBExecutor) (bool, error)
		DeleteClassroom(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		validator *core.Validator
	}
)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, validator *core.Validator) *Service {
	return &Service{db: db, repo: repo, usrRepo: usrRepo, validator: validator}
}

// Create creates a classroom owned by nc.TeacherID with a fresh join code.
// Join code collisions are retried up to maxJoinCodeAttempts times.
func (svc *Service) Create(ctx context.Context, nc NewClassroom) (Classroom, error) {
	nc.Clean()
	if err := svc.validator.Struct(nc); err != nil {
		return Classroom{}, err
	}

	var cls Classroom
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		teacher, err := svc.usrRepo.GetUserByID(ctx, nc.TeacherID, tx)
		if err != nil {
			return err
		}
		if !teacher.IsTeacher() {
			return errNotTeacher
		}

		for attempt := 1; attempt <= maxJoinCodeAttempts; attempt++ {
			code, err := generateJoinCode()
			if err != nil {
				return err
			}
			cls, err = svc.repo.CreateClassroom(ctx, Classroom{
				Name:      nc.Name,
				Section:   nc.Section,
				ClassCode: code,
				TeacherID: teacher.ID,
			}, tx)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrClassCodeExists) {
				return err
			}
		}
		return errors.Errorf("generating a unique class code: %d attempts collided", maxJoinCodeAttempts)
	})
	if err != nil {
		return Classroom{}, err
	}
	return cls, nil
}

// Join adds the student to the classroom identified by code.
func (svc *Service) Join(ctx context.Context, code string, studentID int) (Classroom, error) {
	jr := JoinRequest{ClassCode: code}
	jr.Clean()
	if err := svc.validator.Struct(jr); err != nil {
		return Classroom{}, err
	}
	if !IsValidJoinCode(jr.ClassCode) {
		return Classroom{}, ErrInvalidCode
	}

	var cls Classroom
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		student, err := svc.usrRepo.GetUserByID(ctx, studentID, tx)
		if err != nil {
			return err
		}
		if !student.IsStudent() {
			return errNotStudent
		}

		if cls, err = svc.repo.GetClassroomByCode(ctx, jr.ClassCode, tx); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidCode
			}
			return err
		}
		added, err := svc.repo.AddStudent(ctx, cls.ID, student.ID, tx)
		if err != nil {
			return err
		}
		if !added {
			return ErrAlreadyMember
		}
		return nil
	})
	if err != nil {
		return Classroom{}, err
	}
	return cls, nil
}

// ListForUser returns the classrooms a teacher owns or a student belongs to, each with its teacher.
func (svc *Service) ListForUser(ctx context.Context, usr user.User) ([]Classroom, error) {
	switch usr.Role {
	case user.RoleTeacher:
		return svc.repo.QueryTeacherClassrooms(ctx, usr.ID)
	case user.RoleStudent:
		return svc.repo.QueryStudentClassrooms(ctx, usr.ID)
	default:
		return nil, errors.Errorf("unknown role %q", usr.Role)
	}
}

// Get returns the classroom with its teacher and student roster.
func (svc *Service) Get(ctx context.Context, id int) (Classroom, error) {
	var cls Classroom
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if cls, err = svc.repo.GetClassroomByID(ctx, id, tx); err != nil {
			return err
		}
		cls.Students, err = svc.repo.QueryClassroomStudents(ctx, id, tx)
		return err
	})
	if err != nil {
		return Classroom{}, err
	}
	return cls, nil
}

// HasMember reports whether usr owns (teacher) or belongs to (student) the classroom.
func (svc *Service) HasMember(ctx context.Context, cls Classroom, usr user.User) (bool, error) {
	switch usr.Role {
	case user.RoleTeacher:
		return cls.TeacherID == usr.ID, nil
	case user.RoleStudent:
		return svc.repo.IsStudent(ctx, cls.ID, usr.ID)
	default:
		return false, nil
	}
}

// Delete removes the classroom together with its assignments, submissions, announcements and memberships.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteClassroom(ctx, id)
}
