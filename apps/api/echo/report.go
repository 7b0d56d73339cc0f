package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/user"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt, tabMiddleware(user.TabReports))
	rg.GET("", api.names)
	rg.GET("/:name", api.build)
	rg.GET("/:name/export", api.export)
}

func (api *reportApi) names(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, report.Names)
}

func (api *reportApi) build(ctx echo.Context) error {
	var params report.Params
	if err := bind(ctx, &params); err != nil {
		return err
	}
	t, err := api.svc.Build(ctx.Request().Context(), ctx.Param("name"), params)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, t)
}

// export buffers the workbook so a failing report still gets a JSON error.
func (api *reportApi) export(ctx echo.Context) error {
	var params report.Params
	if err := bind(ctx, &params); err != nil {
		return err
	}
	var buf bytes.Buffer
	t, err := api.svc.Export(ctx.Request().Context(), ctx.Param("name"), params, &buf)
	if err != nil {
		return errors.Wrap(err, "exporting report")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, attachment(t.FileName()))
	return ctx.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

// attachment names the download twice: an ASCII fallback for old clients and
// the UTF-8 name as an RFC 5987 extended parameter.
func attachment(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(fold, name)
	if err != nil {
		ascii = name
	}
	ascii = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || r < ' ' || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, ascii)
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, encoded)
}
