package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// Require rejects callers whose role may not perform op. Services repeat the
// check, so a route registered without Require still fails closed.
func Require(op domain.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := domain.Authorize(PrincipalFrom(c), op)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, domain.ErrForbidden):
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			default:
				return err
			}
		}
	}
}
