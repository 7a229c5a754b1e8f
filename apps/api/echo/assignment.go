package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/submission"
)

type assignmentApi struct {
	svc    *assignment.Service
	clsSvc *classroom.Service
	subSvc *submission.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := assignmentApi{
		svc:    deps.AssignmentSvc,
		clsSvc: deps.ClassroomSvc,
		subSvc: deps.SubmissionSvc,
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)

	// detail endpoints
	dg := ag.Group("/:id")
	dg.GET("", api.retrieve, assignmentMiddleware(api.svc, api.clsSvc, false))
	dg.DELETE("", api.destroy, assignmentMiddleware(api.svc, api.clsSvc, true /* ownerOnly */))
	dg.GET("/submission", api.retrieveSubmission, studentMiddleware(), assignmentMiddleware(api.svc, api.clsSvc, false))
	dg.PUT("/submission", api.submit, studentMiddleware(), assignmentMiddleware(api.svc, api.clsSvc, false))
	dg.GET("/submissions", api.querySubmissions, assignmentMiddleware(api.svc, api.clsSvc, true /* ownerOnly */))
}

// Handlers

// query lists the assignments of every classroom the user joined; always empty for teachers.
func (api *assignmentApi) query(ctx echo.Context) error {
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.svc.ListForStudent(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying student assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) retrieveSubmission(ctx echo.Context) error {
	asg, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}

	sub, found, err := api.subSvc.Get(ctx.Request().Context(), asg.ID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	if !found {
		return submission.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	asg, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	var data submission.SubmitWork
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitWork")
	}

	sub, err := api.subSvc.SubmitOrUpdate(ctx.Request().Context(), asg.ID, usr.ID, data.Content)
	if err != nil {
		return errors.Wrap(err, "submitting work")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	asg, err := contextAssignment(ctx)
	if err != nil {
		return err
	}
	submissions, err := api.subSvc.ListForAssignment(ctx.Request().Context(), asg.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignment submissions")
	}
	if submissions == nil {
		submissions = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, submissions)
}
