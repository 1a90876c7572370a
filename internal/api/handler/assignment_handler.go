package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// AssignmentHandler serves coupon assignment and redemption.
type AssignmentHandler struct {
	service ports.AssignmentService
}

func NewAssignmentHandler(service ports.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// AssignPair gives one coupon to one user.
//
// @Summary      Assign a coupon to a user
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignPairRequest  true  "Coupon and user"
// @Success      201   {object}  assignmentResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/assignments [post]
func (h *AssignmentHandler) AssignPair(c echo.Context) error {
	var req assignPairRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.service.AssignPair(c.Request().Context(), caller(c), domain.Pair{
		CouponID: req.CouponID,
		UserID:   req.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAssignmentResponse(a))
}

// AssignBulk creates many assignments at once. Pairs that already exist are
// skipped; the response lists only what this call created.
//
// @Summary      Assign coupons in bulk
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replay protection key"
// @Param        body             body      bulkAssignRequest  true   "Pairs"
// @Success      201              {object}  batchAssignResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/assignments/bulk [post]
func (h *AssignmentHandler) AssignBulk(c echo.Context) error {
	var req bulkAssignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.service.AssignBulkPairs(c.Request().Context(), caller(c), toPairs(req.Pairs))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, batchAssignResponse{
		Created:     len(created),
		Assignments: toAssignmentResponses(created),
	})
}

// AssignByTitle hands the unassigned coupons of a title to the listed users,
// oldest coupon first.
//
// @Summary      Assign coupons by title
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Replay protection key"
// @Param        body             body      titleAssignRequest  true   "Title and users"
// @Success      201              {object}  batchAssignResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/assignments/by-title [post]
func (h *AssignmentHandler) AssignByTitle(c echo.Context) error {
	var req titleAssignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.service.AssignByTitle(c.Request().Context(), caller(c), req.Title, req.UserIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, batchAssignResponse{
		Created:     len(created),
		Assignments: toAssignmentResponses(created),
	})
}

// ListMine returns the caller's coupons. unused=true hides redeemed ones.
//
// @Summary      My coupons
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        unused  query     bool  false  "Only unused coupons"
// @Success      200     {array}   assignmentResponse
// @Failure      403     {object}  errorResponse
// @Router       /v1/assignments/mine [get]
func (h *AssignmentHandler) ListMine(c echo.Context) error {
	unused := false
	if raw := c.QueryParam("unused"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid unused")
		}
		unused = v
	}

	assignments, err := h.service.ListMine(c.Request().Context(), caller(c), unused)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAssignmentResponses(assignments))
}

// MarkUsed redeems one of the caller's coupons.
//
// @Summary      Redeem a coupon
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Assignment ID"
// @Success      200  {object}  assignmentResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/assignments/{id}/use [post]
func (h *AssignmentHandler) MarkUsed(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.service.MarkUsed(c.Request().Context(), caller(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAssignmentResponse(a))
}
