package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// AuditHandler exposes the coupon event trail.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns recorded events, newest first.
//
// @Summary      Audit events
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        coupon_id  query     int     false  "Coupon ID"
// @Param        user_id    query     int     false  "User ID"
// @Param        type       query     string  false  "Event type"
// @Param        since      query     string  false  "RFC 3339 lower bound"
// @Param        limit      query     int     false  "Max events"  default(100)
// @Success      200        {array}   auditEventResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /v1/audit/events [get]
func (h *AuditHandler) List(c echo.Context) error {
	filter := ports.AuditFilter{Type: domain.EventType(c.QueryParam("type"))}

	var err error
	if filter.CouponID, err = queryID(c, "coupon_id"); err != nil {
		return err
	}
	if filter.UserID, err = queryID(c, "user_id"); err != nil {
		return err
	}
	if filter.Limit, err = queryInt(c, "limit", 0); err != nil {
		return err
	}
	if raw := c.QueryParam("since"); raw != "" {
		filter.Since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid since")
		}
	}

	events, err := h.service.List(c.Request().Context(), caller(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuditEventResponses(events))
}

func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
