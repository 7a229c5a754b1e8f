package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/submission"
	"github.com/trezcool/classroom/core/user"
)

const (
	contextClassroomKey  = "classroom"
	contextAssignmentKey = "assignment"
	contextSubmissionKey = "submission"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// roleMiddleware only lets through users whose token carries one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func teacherMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleTeacher) }
func studentMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleStudent) }

func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func claimsUser(ctx echo.Context) (user.User, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := claims.User()
	if err != nil {
		return user.User{}, errUnauthorized
	}
	return usr, nil
}

// authorizeClassroom checks that the context user teaches (ownerOnly) or belongs to cls.
func authorizeClassroom(ctx echo.Context, svc *classroom.Service, cls classroom.Classroom, ownerOnly bool) error {
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	if ownerOnly {
		if usr.IsTeacher() && cls.TeacherID == usr.ID {
			return nil
		}
		return errHttpForbidden
	}
	ok, err := svc.HasMember(ctx.Request().Context(), cls, usr)
	if err != nil {
		return errors.Wrap(err, "checking classroom membership")
	}
	if !ok {
		return errHttpForbidden
	}
	return nil
}

// classroomMiddleware loads the :id classroom (with its roster) into the context.
func classroomMiddleware(svc *classroom.Service, ownerOnly bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := paramID(ctx)
			if err != nil {
				return err
			}
			cls, err := svc.Get(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			if err = authorizeClassroom(ctx, svc, cls, ownerOnly); err != nil {
				return err
			}
			ctx.Set(contextClassroomKey, cls)
			return next(ctx)
		}
	}
}

// assignmentMiddleware loads the :id assignment and its classroom into the context.
func assignmentMiddleware(asgSvc *assignment.Service, clsSvc *classroom.Service, ownerOnly bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := paramID(ctx)
			if err != nil {
				return err
			}
			asg, err := asgSvc.Get(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			cls, err := clsSvc.Get(ctx.Request().Context(), asg.ClassroomID)
			if err != nil {
				return errors.Wrap(err, "getting assignment classroom")
			}
			if err = authorizeClassroom(ctx, clsSvc, cls, ownerOnly); err != nil {
				return err
			}
			ctx.Set(contextAssignmentKey, asg)
			ctx.Set(contextClassroomKey, cls)
			return next(ctx)
		}
	}
}

// submissionMiddleware loads the :id submission into the context; only the teacher of its classroom gets through.
func submissionMiddleware(
	subSvc *submission.Service,
	asgSvc *assignment.Service,
	clsSvc *classroom.Service,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := paramID(ctx)
			if err != nil {
				return err
			}
			sub, err := subSvc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			asg, err := asgSvc.Get(ctx.Request().Context(), sub.AssignmentID)
			if err != nil {
				return errors.Wrap(err, "getting submission assignment")
			}
			cls, err := clsSvc.Get(ctx.Request().Context(), asg.ClassroomID)
			if err != nil {
				return errors.Wrap(err, "getting submission classroom")
			}
			if err = authorizeClassroom(ctx, clsSvc, cls, true /* ownerOnly */); err != nil {
				return err
			}
			ctx.Set(contextSubmissionKey, sub)
			return next(ctx)
		}
	}
}

func contextClassroom(ctx echo.Context) (classroom.Classroom, error) {
	cls, ok := ctx.Get(contextClassroomKey).(classroom.Classroom)
	if !ok {
		return classroom.Classroom{}, errors.Wrap(errObjNotFoundInCtx, "retrieving classroom from context")
	}
	return cls, nil
}

func contextAssignment(ctx echo.Context) (assignment.Assignment, error) {
	asg, ok := ctx.Get(contextAssignmentKey).(assignment.Assignment)
	if !ok {
		return assignment.Assignment{}, errors.Wrap(errObjNotFoundInCtx, "retrieving assignment from context")
	}
	return asg, nil
}

func contextSubmission(ctx echo.Context) (submission.Submission, error) {
	sub, ok := ctx.Get(contextSubmissionKey).(submission.Submission)
	if !ok {
		return submission.Submission{}, errors.Wrap(errObjNotFoundInCtx, "retrieving submission from context")
	}
	return sub, nil
}
