package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// IdempotencyHeader carries the client-chosen key of a retriable write.
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore remembers claimed keys per caller and scope.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope string, callerID int64, key string) (bool, error)
	Release(ctx context.Context, scope string, callerID int64, key string) error
}

// Idempotency rejects a replayed Idempotency-Key with domain.ErrDuplicateRequest.
// Requests without the header pass through. A key is released again when the
// handler fails so the client can retry. Store outages are logged and the
// request proceeds unguarded.
func Idempotency(store IdempotencyStore, scope string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(IdempotencyHeader)
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			callerID := PrincipalFrom(c).UserID

			claimed, err := store.Claim(ctx, scope, callerID, key)
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("idempotency store unavailable")
				return next(c)
			}
			if !claimed {
				return domain.ErrDuplicateRequest
			}

			if err := next(c); err != nil {
				if relErr := store.Release(ctx, scope, callerID, key); relErr != nil {
					log.Warn().Err(relErr).Str("scope", scope).Msg("release idempotency key")
				}
				return err
			}
			return nil
		}
	}
}
