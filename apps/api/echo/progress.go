package echoapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/user"
)

const importFileField = "file"

var errMissingFile = errors.New("an .xlsx file is required")

type progressApi struct {
	svc *progress.Service
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *progress.Service) {
	api := progressApi{svc: svc}

	cg := g.Group("/catalogs/:kind", jwt, catalogMiddleware)
	cg.GET("", api.query)
	cg.POST("", api.create, progressManagerMiddleware)
	cg.PUT("/:id", api.rename, progressManagerMiddleware)
	cg.DELETE("/:id", api.destroy, progressManagerMiddleware)
	cg.POST("/import/preview", api.previewImport, progressManagerMiddleware)
	cg.POST("/import", api.importItems, progressManagerMiddleware)

	pg := g.Group("/progress/:kind/:sgc", jwt, catalogMiddleware)
	pg.GET("", api.memberItems)
	pg.PUT("", api.setMemberItems, progressManagerMiddleware)
}

func (api *progressApi) create(ctx echo.Context) error {
	var data progress.NewItem
	if err := bind(ctx, &data); err != nil {
		return err
	}
	item, err := api.svc.Create(ctx.Request().Context(), ctx.Param("kind"), data)
	if err != nil {
		return pkgerrors.Wrap(err, "creating catalog item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *progressApi) query(ctx echo.Context) error {
	items, err := api.svc.Query(ctx.Request().Context(), ctx.Param("kind"))
	if err != nil {
		return pkgerrors.Wrap(err, "querying catalog")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *progressApi) rename(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data progress.Rename
	if err := bind(ctx, &data); err != nil {
		return err
	}
	item, err := api.svc.Rename(ctx.Request().Context(), ctx.Param("kind"), id, data)
	if err != nil {
		return pkgerrors.Wrap(err, "renaming catalog item")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *progressApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("kind"), id); err != nil {
		return pkgerrors.Wrap(err, "deleting catalog item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func uploadedFile(ctx echo.Context) (multipart.File, error) {
	fh, err := ctx.FormFile(importFileField)
	if err != nil {
		return nil, core.NewFieldError(importFileField, errMissingFile)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening uploaded file")
	}
	return f, nil
}

func (api *progressApi) previewImport(ctx echo.Context) error {
	f, err := uploadedFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	preview, err := api.svc.PreviewImport(ctx.Request().Context(), ctx.Param("kind"), f)
	if err != nil {
		return pkgerrors.Wrap(err, "previewing import")
	}
	return ctx.JSON(http.StatusOK, preview)
}

func (api *progressApi) importItems(ctx echo.Context) error {
	update, _ := strconv.ParseBool(ctx.FormValue("update_existing"))

	f, err := uploadedFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := api.svc.Import(ctx.Request().Context(), ctx.Param("kind"), f, update)
	if err != nil {
		return pkgerrors.Wrap(err, "importing catalog")
	}
	return ctx.JSON(http.StatusOK, res)
}

// memberItems lets conselho members see their own links only.
func (api *progressApi) memberItems(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "getting context claims")
	}
	sgc := ctx.Param("sgc")
	if sgc != claims.SGC && !user.CanManageProgress(claims.Permission) {
		return errHttpForbidden
	}

	items, err := api.svc.MemberItems(ctx.Request().Context(), ctx.Param("kind"), sgc)
	if err != nil {
		return pkgerrors.Wrap(err, "querying member items")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *progressApi) setMemberItems(ctx echo.Context) error {
	var data progress.SetCodes
	if err := bind(ctx, &data); err != nil {
		return err
	}
	diff, err := api.svc.SetMemberItems(ctx.Request().Context(), ctx.Param("kind"), ctx.Param("sgc"), data)
	if err != nil {
		return pkgerrors.Wrap(err, "setting member items")
	}
	return ctx.JSON(http.StatusOK, diff)
}
