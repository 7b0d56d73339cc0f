package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/user"
)

type inventoryApi struct {
	svc *inventory.Service
}

func registerInventoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *inventory.Service) {
	api := inventoryApi{svc: svc}

	ag := g.Group("/assets", jwt)
	ag.GET("", api.queryAssets, tabMiddleware(user.TabAssets, user.TabMaterials))
	ag.GET("/:id", api.retrieveAsset, tabMiddleware(user.TabAssets, user.TabMaterials))
	ag.POST("", api.createAsset, tabMiddleware(user.TabAssets))
	ag.PUT("/:id", api.updateAsset, tabMiddleware(user.TabAssets))
	ag.DELETE("/:id", api.destroyAsset, tabMiddleware(user.TabAssets))

	rg := g.Group("/material-requests", jwt, tabMiddleware(user.TabMaterials))
	rg.GET("", api.queryRequests)
	rg.POST("", api.submitRequest)
	rg.PUT("/:id/status", api.updateRequestStatus)
	rg.DELETE("/:id", api.destroyRequest)

	lg := g.Group("/loans", jwt, tabMiddleware(user.TabMaterials))
	lg.GET("/:meeting_id", api.loanCards)
	lg.PUT("/:meeting_id/:sgc", api.setLoanStatus)
}

// Assets

func (api *inventoryApi) createAsset(ctx echo.Context) error {
	var data inventory.NewAsset
	if err := bind(ctx, &data); err != nil {
		return err
	}
	asset, err := api.svc.CreateAsset(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating asset")
	}
	return ctx.JSON(http.StatusCreated, asset)
}

func (api *inventoryApi) queryAssets(ctx echo.Context) error {
	assets, err := api.svc.QueryAssets(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assets")
	}
	return ctx.JSON(http.StatusOK, assets)
}

func (api *inventoryApi) retrieveAsset(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	asset, err := api.svc.GetAsset(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding asset")
	}
	return ctx.JSON(http.StatusOK, asset)
}

func (api *inventoryApi) updateAsset(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data inventory.UpdateAsset
	if err := bind(ctx, &data); err != nil {
		return err
	}
	asset, err := api.svc.UpdateAsset(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating asset")
	}
	return ctx.JSON(http.StatusOK, asset)
}

func (api *inventoryApi) destroyAsset(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAsset(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting asset")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Requests

// submitRequest files the request in the name of the logged member.
func (api *inventoryApi) submitRequest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data inventory.NewRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	reqs, err := api.svc.SubmitRequest(ctx.Request().Context(), claims.SGC, data)
	if err != nil {
		return errors.Wrap(err, "submitting material request")
	}
	return ctx.JSON(http.StatusCreated, reqs)
}

func (api *inventoryApi) queryRequests(ctx echo.Context) error {
	var filter inventory.RequestFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	reqs, err := api.svc.QueryRequests(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying material requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *inventoryApi) updateRequestStatus(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data inventory.RequestStatusUpdate
	if err := bind(ctx, &data); err != nil {
		return err
	}
	req, err := api.svc.UpdateRequestStatus(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating material request status")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *inventoryApi) destroyRequest(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRequest(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting material request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Loans

func (api *inventoryApi) loanCards(ctx echo.Context) error {
	meetingID, err := paramID(ctx, "meeting_id")
	if err != nil {
		return err
	}
	cards, err := api.svc.LoanCards(ctx.Request().Context(), meetingID)
	if err != nil {
		return errors.Wrap(err, "building loan cards")
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *inventoryApi) setLoanStatus(ctx echo.Context) error {
	meetingID, err := paramID(ctx, "meeting_id")
	if err != nil {
		return err
	}
	var data inventory.LoanStatusUpdate
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := api.svc.SetLoanStatus(ctx.Request().Context(), meetingID, ctx.Param("sgc"), data); err != nil {
		return errors.Wrap(err, "setting loan status")
	}
	return ctx.NoContent(http.StatusNoContent)
}
