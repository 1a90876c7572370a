package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/infrastructure/spreadsheet"
)

// maxWorkbookBytes bounds the size of an uploaded .xlsx file.
const maxWorkbookBytes = 10 << 20

// CouponHandler serves the coupon catalogue.
type CouponHandler struct {
	service ports.CouponService
}

func NewCouponHandler(service ports.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Create adds a single coupon owned by the caller.
//
// @Summary      Create coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      couponRequest  true  "Coupon"
// @Success      201   {object}  couponResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/coupons [post]
func (h *CouponHandler) Create(c echo.Context) error {
	var req couponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	coupon, err := h.service.Create(c.Request().Context(), caller(c), toCreateCouponInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCouponResponse(coupon))
}

// Upload creates a batch of coupons from a JSON array. Either every coupon
// is created or none is.
//
// @Summary      Upload coupons
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []couponRequest  true  "Coupons"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/coupons/upload [post]
func (h *CouponHandler) Upload(c echo.Context) error {
	var rows []couponRequest
	if err := c.Echo().JSONSerializer.Deserialize(c, &rows); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	inputs := make([]ports.CreateCouponInput, len(rows))
	for i, row := range rows {
		inputs[i] = toCreateCouponInput(row)
	}
	return h.upload(c, inputs)
}

// UploadExcel creates a batch of coupons from the first sheet of an .xlsx
// file sent as the multipart field "file".
//
// @Summary      Upload coupons from a spreadsheet
// @Tags         coupons
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  ".xlsx workbook"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/coupons/upload-excel [post]
func (h *CouponHandler) UploadExcel(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		return echo.NewHTTPError(http.StatusBadRequest, "file must be an .xlsx workbook")
	}
	if fh.Size > maxWorkbookBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file could not be read")
	}
	defer f.Close()

	inputs, err := spreadsheet.ParseCoupons(f)
	if err != nil {
		return err
	}
	return h.upload(c, inputs)
}

func (h *CouponHandler) upload(c echo.Context, inputs []ports.CreateCouponInput) error {
	coupons, err := h.service.Upload(c.Request().Context(), caller(c), inputs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{
		Created: len(coupons),
		Coupons: toCouponResponses(coupons),
	})
}

// List returns every coupon.
//
// @Summary      List coupons
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   couponResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/coupons [get]
func (h *CouponHandler) List(c echo.Context) error {
	coupons, err := h.service.List(c.Request().Context(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCouponResponses(coupons))
}

// ListCreated returns the coupons the calling manager created.
//
// @Summary      Coupons created by me
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   couponResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/coupons/my-created [get]
func (h *CouponHandler) ListCreated(c echo.Context) error {
	coupons, err := h.service.ListCreated(c.Request().Context(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCouponResponses(coupons))
}

// ListUnassigned returns coupons not yet given to anyone, optionally of one title.
//
// @Summary      Unassigned coupons
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Param        title  query     string  false  "Assignment title"
// @Success      200    {array}   couponResponse
// @Failure      403    {object}  errorResponse
// @Router       /v1/coupons/unassigned [get]
func (h *CouponHandler) ListUnassigned(c echo.Context) error {
	coupons, err := h.service.ListUnassigned(c.Request().Context(), caller(c), c.QueryParam("title"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCouponResponses(coupons))
}

// ListTitles returns each assignment title with its unassigned coupon count.
//
// @Summary      Assignment titles
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   titleResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/coupons/assignment-titles [get]
func (h *CouponHandler) ListTitles(c echo.Context) error {
	titles, err := h.service.ListTitles(c.Request().Context(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTitleResponses(titles))
}

// Get returns one coupon.
//
// @Summary      Get coupon
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Coupon ID"
// @Success      200  {object}  couponResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/coupons/{id} [get]
func (h *CouponHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	coupon, err := h.service.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCouponResponse(coupon))
}

// Update applies a partial change to a coupon.
//
// @Summary      Update coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Coupon ID"
// @Param        body  body      updateCouponRequest  true  "Fields to change"
// @Success      200   {object}  couponResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/coupons/{id} [put]
func (h *CouponHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCouponRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	coupon, err := h.service.Update(c.Request().Context(), caller(c), id, toCouponPatch(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCouponResponse(coupon))
}

// Delete removes a coupon and its assignments.
//
// @Summary      Delete coupon
// @Tags         coupons
// @Security     BearerAuth
// @Param        id   path  int  true  "Coupon ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/coupons/{id} [delete]
func (h *CouponHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), caller(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
