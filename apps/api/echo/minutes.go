package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/minutes"
	"github.com/pioneiros/colina/core/user"
)

type minutesApi struct {
	svc *minutes.Service
}

func registerMinutesAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *minutes.Service) {
	api := minutesApi{svc: svc}

	mg := g.Group("/minutes", jwt, tabMiddleware(user.TabMinutes))
	mg.GET("", api.queryMinutes)
	mg.POST("", api.createMinute)
	mg.PUT("/:id", api.updateMinute)
	mg.DELETE("/:id", api.destroyMinute)

	ag := g.Group("/acts", jwt, tabMiddleware(user.TabMinutes))
	ag.GET("", api.queryActs)
	ag.POST("", api.createAct)
	ag.PUT("/:id", api.updateAct)
	ag.DELETE("/:id", api.destroyAct)
}

func (api *minutesApi) createMinute(ctx echo.Context) error {
	var data minutes.NewMinute
	if err := bind(ctx, &data); err != nil {
		return err
	}
	m, err := api.svc.CreateMinute(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating minute")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *minutesApi) queryMinutes(ctx echo.Context) error {
	mins, err := api.svc.QueryMinutes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying minutes")
	}
	return ctx.JSON(http.StatusOK, mins)
}

func (api *minutesApi) updateMinute(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data minutes.NewMinute
	if err := bind(ctx, &data); err != nil {
		return err
	}
	m, err := api.svc.UpdateMinute(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating minute")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *minutesApi) destroyMinute(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteMinute(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting minute")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// createAct records the act under the unit of the logged member.
func (api *minutesApi) createAct(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data minutes.NewAct
	if err := bind(ctx, &data); err != nil {
		return err
	}
	act, err := api.svc.CreateAct(ctx.Request().Context(), claims.SGC, data)
	if err != nil {
		return errors.Wrap(err, "creating act")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *minutesApi) queryActs(ctx echo.Context) error {
	var filter minutes.ActFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	acts, err := api.svc.QueryActs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying acts")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *minutesApi) updateAct(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data minutes.NewAct
	if err := bind(ctx, &data); err != nil {
		return err
	}
	act, err := api.svc.UpdateAct(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating act")
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *minutesApi) destroyAct(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAct(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting act")
	}
	return ctx.NoContent(http.StatusNoContent)
}
