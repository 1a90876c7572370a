package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler maps domain errors to status codes and renders
// {"error": "<message>"}. Unexpected errors are logged and answered with a
// generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Msg
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound),
		errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusNotFound, sentinelMessage(err)
	case errors.Is(err, domain.ErrAssignmentExists),
		errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, domain.ErrCouponCodeExists),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, sentinelMessage(err)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, domain.ErrValidation.Error()
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many attempts, try again later"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// sentinelMessage returns the text of the domain sentinel wrapped by err,
// dropping the operation prefixes added on the way up.
func sentinelMessage(err error) string {
	for _, s := range []error{
		domain.ErrUserNotFound, domain.ErrCouponNotFound, domain.ErrAssignmentNotFound,
		domain.ErrReferenceNotFound, domain.ErrAssignmentExists, domain.ErrAlreadyUsed,
		domain.ErrCouponCodeExists, domain.ErrUserExists, domain.ErrDuplicateRequest,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
