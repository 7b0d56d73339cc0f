package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/documents"
	"github.com/pioneiros/colina/core/user"
)

type documentsApi struct {
	svc *documents.Service
}

func registerDocumentsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *documents.Service) {
	api := documentsApi{svc: svc}

	dg := g.Group("/documents", jwt, tabMiddleware(user.TabDocuments))
	dg.GET("/events/:id/requirements", api.queryRequirements)
	dg.POST("/events/:id/requirements", api.addRequirement)
	dg.DELETE("/requirements/:id", api.destroyRequirement)

	dg.GET("/events/:id/deliveries", api.queryDeliveries)
	dg.POST("/events/:id/deliveries", api.registerDelivery)
	dg.DELETE("/deliveries/:id", api.destroyDelivery)

	dg.GET("/events/:id/checklist/:sgc", api.checklist)
}

func (api *documentsApi) addRequirement(ctx echo.Context) error {
	eventID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data documents.NewRequirement
	if err := bind(ctx, &data); err != nil {
		return err
	}
	req, err := api.svc.AddRequirement(ctx.Request().Context(), eventID, data)
	if err != nil {
		return errors.Wrap(err, "adding document requirement")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *documentsApi) queryRequirements(ctx echo.Context) error {
	eventID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reqs, err := api.svc.QueryRequirements(ctx.Request().Context(), eventID)
	if err != nil {
		return errors.Wrap(err, "querying document requirements")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *documentsApi) destroyRequirement(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRequirement(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting document requirement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *documentsApi) registerDelivery(ctx echo.Context) error {
	eventID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data documents.NewDelivery
	if err := bind(ctx, &data); err != nil {
		return err
	}
	d, err := api.svc.RegisterDelivery(ctx.Request().Context(), eventID, data)
	if err != nil {
		return errors.Wrap(err, "registering delivery")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *documentsApi) queryDeliveries(ctx echo.Context) error {
	eventID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	ds, err := api.svc.QueryDeliveries(ctx.Request().Context(), eventID)
	if err != nil {
		return errors.Wrap(err, "querying deliveries")
	}
	return ctx.JSON(http.StatusOK, ds)
}

func (api *documentsApi) destroyDelivery(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteDelivery(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting delivery")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *documentsApi) checklist(ctx echo.Context) error {
	eventID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	items, err := api.svc.Checklist(ctx.Request().Context(), eventID, ctx.Param("sgc"))
	if err != nil {
		return errors.Wrap(err, "building document checklist")
	}
	return ctx.JSON(http.StatusOK, items)
}
