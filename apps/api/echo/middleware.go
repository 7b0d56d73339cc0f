package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/user"
)

// tabMiddleware lets through callers whose permission grants at least one of tabs.
func tabMiddleware(tabs ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, tab := range tabs {
				if user.HasTab(claims.Permission, tab) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func progressManagerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if !user.CanManageProgress(claims.Permission) {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

var catalogTabs = map[string]string{
	progress.KindClass:     user.TabClasses,
	progress.KindSpecialty: user.TabSpecialties,
}

// catalogMiddleware checks the tab of the catalog named by the `kind` path param.
func catalogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tab, ok := catalogTabs[ctx.Param("kind")]
		if !ok {
			return errHttpNotFound
		}
		return tabMiddleware(tab)(next)(ctx)
	}
}
