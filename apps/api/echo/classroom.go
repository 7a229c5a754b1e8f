package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classroom/core/announcement"
	"github.com/trezcool/classroom/core/assignment"
	"github.com/trezcool/classroom/core/classroom"
)

type classroomApi struct {
	svc     *classroom.Service
	asgSvc  *assignment.Service
	annoSvc *announcement.Service
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := classroomApi{
		svc:     deps.ClassroomSvc,
		asgSvc:  deps.AssignmentSvc,
		annoSvc: deps.AnnouncementSvc,
	}

	cg := g.Group("/classrooms", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, teacherMiddleware())
	cg.POST("/join", api.join, studentMiddleware())

	// detail endpoints
	dg := cg.Group("/:id")
	dg.GET("", api.retrieve, classroomMiddleware(api.svc, false))
	dg.GET("/assignments", api.queryAssignments, classroomMiddleware(api.svc, false))
	dg.POST("/assignments", api.createAssignment, classroomMiddleware(api.svc, true /* ownerOnly */))
	dg.GET("/announcements", api.queryAnnouncements, classroomMiddleware(api.svc, false))
	dg.POST("/announcements", api.createAnnouncement, classroomMiddleware(api.svc, false))
}

// Handlers

func (api *classroomApi) query(ctx echo.Context) error {
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	classrooms, err := api.svc.ListForUser(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	data.TeacherID = usr.ID

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classroomApi) join(ctx echo.Context) error {
	var data classroom.JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}

	cls, err := api.svc.Join(ctx.Request().Context(), data.ClassCode, usr.ID)
	if err != nil {
		return errors.Wrap(err, "joining classroom")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	cls, err := contextClassroom(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) queryAssignments(ctx echo.Context) error {
	cls, err := contextClassroom(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.asgSvc.ListForClassroom(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying classroom assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *classroomApi) createAssignment(ctx echo.Context) error {
	cls, err := contextClassroom(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassroomID = cls.ID

	asg, err := api.asgSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *classroomApi) queryAnnouncements(ctx echo.Context) error {
	cls, err := contextClassroom(ctx)
	if err != nil {
		return err
	}
	announcements, err := api.annoSvc.ListForClassroom(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying classroom announcements")
	}
	if announcements == nil {
		announcements = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, announcements)
}

func (api *classroomApi) createAnnouncement(ctx echo.Context) error {
	cls, err := contextClassroom(ctx)
	if err != nil {
		return err
	}
	usr, err := claimsUser(ctx)
	if err != nil {
		return err
	}
	var data announcement.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	data.ClassroomID = cls.ID
	data.AuthorID = usr.ID

	anno, err := api.annoSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, anno)
}
