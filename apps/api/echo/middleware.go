package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core"
	"github.com/kwanza/mahudhurio/core/authz"
	"github.com/kwanza/mahudhurio/core/user"
)

// adminMiddleware fails fast on the claims snapshot; fine-grained checks
// against the fresh user still go through authz.Decide in the handlers.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return core.NewForbiddenError(authz.ReasonAdminRequired)
		}
	}
}

// decide converts an authz denial into a ForbiddenError; nil when allowed.
func decide(actor user.User, action authz.Action, target authz.Target) error {
	if d := authz.Decide(actor, action, target); !d.Allowed {
		return core.NewForbiddenError(d.Reason)
	}
	return nil
}
