package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/authz"
	"github.com/kwanza/mahudhurio/core/school"
	"github.com/kwanza/mahudhurio/core/user"
)

type schoolApi struct {
	svc      *school.Service
	attSvc   *attendance.Service
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		attSvc:   deps.AttendanceSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/school", jwt)

	// own-class views, scoped by the caller's membership
	sg.GET("/class", api.ownClass)
	sg.GET("/class/students", api.ownClassStudents)

	// class administration
	sg.GET("/classes", api.queryClasses)
	sg.POST("/classes", api.createClass)
	sg.PUT("/classes/:id", api.updateClass)
	sg.GET("/classes/:id/students", api.classStudents)
	sg.GET("/classes/:id/attendance", api.classAttendance)

	// class-scoped resources
	sg.GET("/materials", api.queryMaterials)
	sg.POST("/materials", api.createMaterial)
	sg.GET("/notices", api.queryNotices)
	sg.POST("/notices", api.createNotice)
	sg.GET("/events", api.queryEvents)
	sg.POST("/events", api.createEvent)
	sg.GET("/marks", api.queryMarks)
	sg.POST("/marks", api.createMark)
}

// Handlers

func (api *schoolApi) ownClass(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cls, err := api.svc.ClassOf(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting own class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) ownClassStudents(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ListClassStudents, authz.Target{ClassID: usr.ClassID}); err != nil {
		return err
	}

	students, err := api.svc.StudentsOf(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ListClasses, authz.Target{}); err != nil {
		return err
	}

	classes, err := api.svc.QueryAllClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CreateClass, authz.Target{}); err != nil {
		return err
	}

	var data school.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.UpdateClass, authz.Target{}); err != nil {
		return err
	}

	var data school.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.UpdateClass(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) classStudents(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ListClassStudents, authz.Target{}); err != nil {
		return err
	}

	students, err := api.svc.StudentsOfClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) classAttendance(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ReadClassAttendance, authz.Target{}); err != nil {
		return err
	}

	var dr attendance.DateRange
	if err = ctx.Bind(&dr); err != nil {
		return errors.Wrap(err, "binding to DateRange")
	}

	recs, err := api.attSvc.QueryByClass(ctx.Request().Context(), id, dr)
	if err != nil {
		return errors.Wrap(err, "querying class attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// Materials

func (api *schoolApi) queryMaterials(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	materials, err := api.svc.MaterialsFor(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *schoolApi) createMaterial(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CreateMaterial, authz.Target{ClassID: usr.ClassID}); err != nil {
		return err
	}

	var data school.NewMaterial
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.CreateMaterial(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

// Notices

func (api *schoolApi) queryNotices(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	notices, err := api.svc.NoticesFor(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *schoolApi) createNotice(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CreateNotice, authz.Target{ClassID: usr.ClassID}); err != nil {
		return err
	}

	var data school.NewNotice
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.CreateNotice(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, n)
}

// Events

func (api *schoolApi) queryEvents(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	events, err := api.svc.EventsFor(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *schoolApi) createEvent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CreateEvent, authz.Target{ClassID: usr.ClassID}); err != nil {
		return err
	}

	var data school.NewEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.CreateEvent(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

// Marks

func (api *schoolApi) queryMarks(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ReadMarks, authz.Target{OwnerID: usr.ID}); err != nil {
		return err
	}

	marks, err := api.svc.MarksFor(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *schoolApi) createMark(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CreateMark, authz.Target{ClassID: usr.ClassID}); err != nil {
		return err
	}

	var data school.NewMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.CreateMark(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating mark")
	}
	return ctx.JSON(http.StatusCreated, m)
}
