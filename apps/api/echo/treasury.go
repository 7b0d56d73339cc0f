package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/treasury"
	"github.com/pioneiros/colina/core/user"
)

type treasuryApi struct {
	svc *treasury.Service
}

func registerTreasuryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *treasury.Service) {
	api := treasuryApi{svc: svc}

	// events are also picked from the documents tab
	eg := g.Group("/events", jwt)
	eg.GET("", api.queryEvents, tabMiddleware(user.TabTreasury, user.TabDocuments))
	eg.GET("/:id", api.retrieveEvent, tabMiddleware(user.TabTreasury, user.TabDocuments))

	tg := g.Group("/treasury", jwt, tabMiddleware(user.TabTreasury))

	tg.GET("/dues", api.queryDues)
	tg.POST("/dues", api.createYearlyDues)
	tg.PUT("/dues/:id", api.editDues)

	tg.GET("/members/:sgc/dues", api.memberDues)
	tg.PUT("/members/:sgc/dues", api.updateDuesStatus)
	tg.GET("/members/:sgc/debts", api.debts)
	tg.GET("/debtors", api.debtors)

	tg.POST("/events", api.createEvent)
	tg.PUT("/events/:id", api.updateEvent)
	tg.DELETE("/events/:id", api.destroyEvent)
	tg.GET("/events/:id/cash", api.eventCash)
	tg.GET("/events/:id/enrollments", api.queryEnrollments)
	tg.POST("/events/:id/enrollments", api.enroll)
	tg.PUT("/events/:id/enrollments/:sgc", api.updateEnrollmentStatus)
	tg.DELETE("/events/:id/enrollments/:sgc", api.removeEnrollment)

	tg.GET("/cash", api.queryCash)
	tg.POST("/cash", api.addCashEntry)
	tg.DELETE("/cash/:id", api.destroyCashEntry)

	tg.GET("/closings", api.queryClosings)
	tg.GET("/closings/preview", api.previewClosing)
	tg.POST("/closings", api.close)

	tg.GET("/reports/years", api.yearTotals)
	tg.GET("/reports/months", api.monthTotals)
	tg.GET("/reports/totals", api.overallTotals)
	tg.GET("/reports/events", api.eventsWithCash)
	tg.GET("/reports/dues", api.duesIndicators)
}

// Dues

func (api *treasuryApi) createYearlyDues(ctx echo.Context) error {
	var data treasury.YearlyDues
	if err := bind(ctx, &data); err != nil {
		return err
	}
	dues, err := api.svc.CreateYearlyDues(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating yearly dues")
	}
	return ctx.JSON(http.StatusCreated, dues)
}

func (api *treasuryApi) queryDues(ctx echo.Context) error {
	year, err := queryInt(ctx, "year")
	if err != nil {
		return err
	}
	dues, err := api.svc.QueryDues(ctx.Request().Context(), year)
	if err != nil {
		return errors.Wrap(err, "querying dues")
	}
	return ctx.JSON(http.StatusOK, dues)
}

func (api *treasuryApi) editDues(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data treasury.EditDues
	if err := bind(ctx, &data); err != nil {
		return err
	}
	dues, err := api.svc.EditDues(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "editing dues")
	}
	return ctx.JSON(http.StatusOK, dues)
}

func (api *treasuryApi) memberDues(ctx echo.Context) error {
	dues, err := api.svc.MemberDues(ctx.Request().Context(), ctx.Param("sgc"))
	if err != nil {
		return errors.Wrap(err, "querying member dues")
	}
	return ctx.JSON(http.StatusOK, dues)
}

func (api *treasuryApi) updateDuesStatus(ctx echo.Context) error {
	var data treasury.DuesStatusUpdate
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sgc := ctx.Param("sgc")
	if err := api.svc.UpdateDuesStatus(ctx.Request().Context(), sgc, data); err != nil {
		return errors.Wrap(err, "updating dues status")
	}
	dues, err := api.svc.MemberDues(ctx.Request().Context(), sgc)
	if err != nil {
		return errors.Wrap(err, "querying member dues")
	}
	return ctx.JSON(http.StatusOK, dues)
}

func (api *treasuryApi) debts(ctx echo.Context) error {
	debts, err := api.svc.Debts(ctx.Request().Context(), ctx.Param("sgc"))
	if err != nil {
		return errors.Wrap(err, "computing debts")
	}
	return ctx.JSON(http.StatusOK, debts)
}

func (api *treasuryApi) debtors(ctx echo.Context) error {
	debtors, err := api.svc.Debtors(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying debtors")
	}
	return ctx.JSON(http.StatusOK, debtors)
}

// Events

func (api *treasuryApi) createEvent(ctx echo.Context) error {
	var data treasury.NewEvent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	evt, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *treasuryApi) queryEvents(ctx echo.Context) error {
	events, err := api.svc.QueryEvents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *treasuryApi) retrieveEvent(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	evt, err := api.svc.GetEvent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *treasuryApi) updateEvent(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data treasury.NewEvent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	evt, err := api.svc.UpdateEvent(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *treasuryApi) destroyEvent(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteEvent(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *treasuryApi) eventCash(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	cash, err := api.svc.EventCash(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying event cash")
	}
	return ctx.JSON(http.StatusOK, cash)
}

// Enrolments

func (api *treasuryApi) enroll(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data treasury.Enroll
	if err := bind(ctx, &data); err != nil {
		return err
	}
	enrollments, err := api.svc.Enroll(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "enrolling members")
	}
	return ctx.JSON(http.StatusCreated, enrollments)
}

func (api *treasuryApi) queryEnrollments(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	enrollments, err := api.svc.QueryEnrollments(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *treasuryApi) updateEnrollmentStatus(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data treasury.EnrollmentStatusUpdate
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.UpdateEnrollmentStatus(ctx.Request().Context(), id, ctx.Param("sgc"), data); err != nil {
		return errors.Wrap(err, "updating enrollment status")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *treasuryApi) removeEnrollment(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.RemoveEnrollment(ctx.Request().Context(), id, ctx.Param("sgc")); err != nil {
		return errors.Wrap(err, "removing enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Cash

func (api *treasuryApi) addCashEntry(ctx echo.Context) error {
	var data treasury.NewCashEntry
	if err := bind(ctx, &data); err != nil {
		return err
	}
	entry, err := api.svc.AddCashEntry(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding cash entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *treasuryApi) queryCash(ctx echo.Context) error {
	var filter treasury.CashFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	entries, err := api.svc.QueryCashEntries(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying cash entries")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *treasuryApi) destroyCashEntry(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteCashEntry(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting cash entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Closings

func (api *treasuryApi) previewClosing(ctx echo.Context) error {
	var data treasury.ClosePeriod
	if err := bind(ctx, &data); err != nil {
		return err
	}
	closing, err := api.svc.PreviewClosing(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "previewing closing")
	}
	return ctx.JSON(http.StatusOK, closing)
}

func (api *treasuryApi) close(ctx echo.Context) error {
	var data treasury.ClosePeriod
	if err := bind(ctx, &data); err != nil {
		return err
	}
	closing, err := api.svc.Close(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "closing month")
	}
	return ctx.JSON(http.StatusCreated, closing)
}

func (api *treasuryApi) queryClosings(ctx echo.Context) error {
	closings, err := api.svc.QueryClosings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying closings")
	}
	return ctx.JSON(http.StatusOK, closings)
}

// Reports

func (api *treasuryApi) yearTotals(ctx echo.Context) error {
	rows, err := api.svc.YearTotals(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summing years")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *treasuryApi) monthTotals(ctx echo.Context) error {
	rows, err := api.svc.MonthTotals(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summing months")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *treasuryApi) overallTotals(ctx echo.Context) error {
	totals, err := api.svc.OverallTotals(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summing cash")
	}
	return ctx.JSON(http.StatusOK, totals)
}

func (api *treasuryApi) eventsWithCash(ctx echo.Context) error {
	events, err := api.svc.EventsWithCash(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events with cash")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *treasuryApi) duesIndicators(ctx echo.Context) error {
	var filter treasury.IndicatorFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	indicators, err := api.svc.DuesIndicators(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "counting dues")
	}
	return ctx.JSON(http.StatusOK, indicators)
}
