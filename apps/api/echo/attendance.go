package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/user"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query, tabMiddleware(user.TabAttendanceView))
	ag.GET("/meetings/:meeting_id/units/:unit_id", api.sheet, tabMiddleware(user.TabAttendance))
	ag.PUT("/meetings/:meeting_id/units/:unit_id", api.register, tabMiddleware(user.TabAttendance))

	sg := g.Group("/scores", jwt, tabMiddleware(user.TabScores))
	sg.GET("/ranking", api.ranking)
	sg.GET("/periods", api.periodReport)
	sg.GET("/units/:id", api.breakdown)
	sg.GET("/units/:id/members", api.memberTotals)
}

func (api *attendanceApi) sheetParams(ctx echo.Context) (int, int, error) {
	meetingID, err := paramID(ctx, "meeting_id")
	if err != nil {
		return 0, 0, err
	}
	unitID, err := paramID(ctx, "unit_id")
	if err != nil {
		return 0, 0, err
	}
	return meetingID, unitID, nil
}

func (api *attendanceApi) sheet(ctx echo.Context) error {
	meetingID, unitID, err := api.sheetParams(ctx)
	if err != nil {
		return err
	}
	sheet, err := api.svc.Sheet(ctx.Request().Context(), meetingID, unitID)
	if err != nil {
		return errors.Wrap(err, "building attendance sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) register(ctx echo.Context) error {
	meetingID, unitID, err := api.sheetParams(ctx)
	if err != nil {
		return err
	}
	var data attendance.Register
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.Register(ctx.Request().Context(), meetingID, unitID, data); err != nil {
		return errors.Wrap(err, "registering attendance")
	}
	sheet, err := api.svc.Sheet(ctx.Request().Context(), meetingID, unitID)
	if err != nil {
		return errors.Wrap(err, "building attendance sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var filter attendance.Filter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	records, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) ranking(ctx echo.Context) error {
	year, err := queryInt(ctx, "year")
	if err != nil {
		return err
	}
	rows, err := api.svc.Ranking(ctx.Request().Context(), year)
	if err != nil {
		return errors.Wrap(err, "ranking units")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *attendanceApi) breakdown(ctx echo.Context) error {
	unitID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	rows, err := api.svc.Breakdown(ctx.Request().Context(), unitID, ctx.QueryParam("period"))
	if err != nil {
		return errors.Wrap(err, "breaking down unit scores")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *attendanceApi) periodReport(ctx echo.Context) error {
	year, err := queryInt(ctx, "year")
	if err != nil {
		return err
	}
	rows, err := api.svc.PeriodReport(ctx.Request().Context(), ctx.QueryParam("period"), year)
	if err != nil {
		return errors.Wrap(err, "summing scores per period")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *attendanceApi) memberTotals(ctx echo.Context) error {
	unitID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	rows, err := api.svc.MemberTotals(ctx.Request().Context(), unitID)
	if err != nil {
		return errors.Wrap(err, "summing member scores")
	}
	return ctx.JSON(http.StatusOK, rows)
}
