package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core/attendance"
	"github.com/kwanza/mahudhurio/core/authz"
	"github.com/kwanza/mahudhurio/core/user"
)

type attendanceApi struct {
	svc     *attendance.Service
	userSvc user.ServiceInterface
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		svc:     deps.AttendanceSvc,
		userSvc: deps.UserSvc,
	}

	ag := g.Group("/attendance", jwt)

	// self-service ledger
	ag.POST("/check-in", api.checkIn)
	ag.POST("/check-out", api.checkOut)
	ag.GET("/today", api.today)
	ag.GET("/history", api.history)

	// cross-user views
	ag.GET("", api.queryAll)
	ag.GET("/users/:id", api.queryUser)
	ag.DELETE("/:id", api.destroy)
	ag.DELETE("", api.destroyMultiple)
}

// Handlers

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CheckSelfInOut, authz.Target{OwnerID: usr.ID}); err != nil {
		return err
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.CheckSelfInOut, authz.Target{OwnerID: usr.ID}); err != nil {
		return err
	}

	rec, err := api.svc.CheckOut(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking out")
	}
	return ctx.JSON(http.StatusOK, TodayResponse{
		Record:      &rec,
		State:       rec.State().String(),
		HoursWorked: rec.HoursWorked(),
	})
}

func (api *attendanceApi) today(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.Today(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting today's record")
	}
	return ctx.JSON(http.StatusOK, TodayResponse{
		Record:      rec,
		State:       rec.State().String(),
		HoursWorked: rec.HoursWorked(),
	})
}

func (api *attendanceApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var dr attendance.DateRange
	if err = ctx.Bind(&dr); err != nil {
		return errors.Wrap(err, "binding to DateRange")
	}

	recs, err := api.svc.History(ctx.Request().Context(), usr.ID, dr)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) queryAll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(usr, authz.ReadAllAttendance, authz.Target{}); err != nil {
		return err
	}

	var dr attendance.DateRange
	if err = ctx.Bind(&dr); err != nil {
		return errors.Wrap(err, "binding to DateRange")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.QueryAll(ctx.Request().Context(), dr, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) queryUser(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	target, err := api.userSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if err = decide(ctxUsr, authz.ReadUserAttendance, authz.Target{OwnerID: target.ID, ClassID: target.ClassID}); err != nil {
		return err
	}

	var dr attendance.DateRange
	if err = ctx.Bind(&dr); err != nil {
		return errors.Wrap(err, "binding to DateRange")
	}

	recs, err := api.svc.History(ctx.Request().Context(), target.ID, dr)
	if err != nil {
		return errors.Wrap(err, "querying user attendance records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding attendance record")
	}
	if err = decide(ctxUsr, authz.DeleteAttendance, authz.Target{OwnerID: rec.UserID}); err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) destroyMultiple(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = decide(ctxUsr, authz.BulkDeleteAttendance, authz.Target{}); err != nil {
		return err
	}

	var query DestroyMultipleRequest
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}

	count, err := api.svc.DeleteMany(ctx.Request().Context(), query.IDs...)
	if err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	return ctx.JSON(http.StatusOK, DestroyMultipleResponse{Deleted: count})
}

type (
	// TodayResponse reports the day's ledger entry with its derived state.
	// Record is null when the user has not checked in yet.
	TodayResponse struct {
		Record      *attendance.Record `json:"record"`
		State       string             `json:"state"`
		HoursWorked string             `json:"hours_worked"`
	}

	DestroyMultipleRequest struct {
		IDs []int `query:"id"`
	}

	DestroyMultipleResponse struct {
		Deleted int `json:"deleted"`
	}
)
