package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/submission"
)

var errGradeRequired = core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "this field is required"})

type submissionApi struct {
	svc *submission.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := submissionApi{svc: deps.SubmissionSvc}

	sg := g.Group("/submissions", jwt)
	sg.PUT("/:id/grade", api.grade, submissionMiddleware(api.svc, deps.AssignmentSvc, deps.ClassroomSvc))
}

// Handlers

func (api *submissionApi) grade(ctx echo.Context) error {
	sub, err := contextSubmission(ctx)
	if err != nil {
		return err
	}
	var data submission.GradeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if data.Grade == nil {
		return errGradeRequired
	}

	sub, err = api.svc.Grade(ctx.Request().Context(), sub.ID, *data.Grade)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
