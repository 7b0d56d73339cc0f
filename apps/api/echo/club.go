package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/user"
)

type clubApi struct {
	svc *club.Service
}

// Lookups (GET) are open to any logged in user: most tabs pick units, members or meetings.
// Changes need the tab owning the resource.
func registerClubAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *club.Service) {
	api := clubApi{svc: svc}

	g.GET("/cargos", api.queryRoles, jwt)

	ug := g.Group("/units", jwt)
	ug.GET("", api.queryUnits)
	ug.GET("/:id", api.retrieveUnit)
	ug.POST("", api.createUnit, tabMiddleware(user.TabUnits))
	ug.PUT("/:id", api.updateUnit, tabMiddleware(user.TabUnits))
	ug.DELETE("/:id", api.destroyUnit, tabMiddleware(user.TabUnits))

	mg := g.Group("/members", jwt)
	mg.GET("", api.queryMembers)
	mg.GET("/:id", api.retrieveMember)
	mg.POST("", api.createMember, tabMiddleware(user.TabMembers))
	mg.PUT("/:id", api.updateMember, tabMiddleware(user.TabMembers))
	mg.DELETE("/:id", api.destroyMember, tabMiddleware(user.TabMembers))

	rg := g.Group("/meetings", jwt)
	rg.GET("", api.queryMeetings)
	rg.GET("/:id", api.retrieveMeeting)
	rg.POST("", api.createMeeting, tabMiddleware(user.TabMeetings))
	rg.PUT("/:id", api.updateMeeting, tabMiddleware(user.TabMeetings))
	rg.DELETE("/:id", api.destroyMeeting, tabMiddleware(user.TabMeetings))
}

func (api *clubApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, club.Roles)
}

// Units

func (api *clubApi) createUnit(ctx echo.Context) error {
	var data club.NewUnit
	if err := bind(ctx, &data); err != nil {
		return err
	}
	unit, err := api.svc.CreateUnit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating unit")
	}
	return ctx.JSON(http.StatusCreated, unit)
}

func (api *clubApi) queryUnits(ctx echo.Context) error {
	units, err := api.svc.QueryUnits(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying units")
	}
	return ctx.JSON(http.StatusOK, units)
}

func (api *clubApi) retrieveUnit(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	unit, err := api.svc.GetUnit(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding unit")
	}
	return ctx.JSON(http.StatusOK, unit)
}

func (api *clubApi) updateUnit(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data club.NewUnit
	if err := bind(ctx, &data); err != nil {
		return err
	}
	unit, err := api.svc.UpdateUnit(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating unit")
	}
	return ctx.JSON(http.StatusOK, unit)
}

func (api *clubApi) destroyUnit(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteUnit(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting unit")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Members

func (api *clubApi) createMember(ctx echo.Context) error {
	var data club.NewMember
	if err := bind(ctx, &data); err != nil {
		return err
	}
	mbr, err := api.svc.CreateMember(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *clubApi) queryMembers(ctx echo.Context) error {
	var filter club.MemberFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	members, err := api.svc.QueryMembers(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *clubApi) retrieveMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	mbr, err := api.svc.GetMember(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding member")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *clubApi) updateMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data club.UpdateMember
	if err := bind(ctx, &data); err != nil {
		return err
	}
	mbr, err := api.svc.UpdateMember(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *clubApi) destroyMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteMember(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Meetings

func (api *clubApi) createMeeting(ctx echo.Context) error {
	var data club.NewMeeting
	if err := bind(ctx, &data); err != nil {
		return err
	}
	mtg, err := api.svc.CreateMeeting(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating meeting")
	}
	return ctx.JSON(http.StatusCreated, mtg)
}

func (api *clubApi) queryMeetings(ctx echo.Context) error {
	meetings, err := api.svc.QueryMeetings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *clubApi) retrieveMeeting(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	mtg, err := api.svc.GetMeeting(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *clubApi) updateMeeting(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data club.NewMeeting
	if err := bind(ctx, &data); err != nil {
		return err
	}
	mtg, err := api.svc.UpdateMeeting(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *clubApi) destroyMeeting(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteMeeting(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting meeting")
	}
	return ctx.NoContent(http.StatusNoContent)
}
