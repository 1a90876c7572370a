package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/couponhub/coupon-service/internal/api/handler"
	"github.com/couponhub/coupon-service/internal/api/middleware"
	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs from main.
type Dependencies struct {
	Log       zerolog.Logger
	JWTSecret string

	Auth        ports.AuthService
	Users       ports.UserService
	Coupons     ports.CouponService
	Assignments ports.AssignmentService
	Audit       ports.AuditService

	// Idempotency guards the batch assignment routes. Nil disables the guard.
	Idempotency middleware.IdempotencyStore
	// Readiness lists the dependency checks behind /health/ready.
	Readiness map[string]handler.Pinger
	// Metrics receives the HTTP metrics. Nil means the default registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "coupon_service",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/token", authHandler.Token)

	secured := v1.Group("", middleware.Auth(deps.JWTSecret))
	require := middleware.Require

	// --- Users ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := secured.Group("/users")
	users.GET("/me", userHandler.Me, require(domain.OpProfileRead))
	users.GET("", userHandler.List, require(domain.OpUserList))
	users.POST("", userHandler.Create, require(domain.OpUserCreate))
	users.GET("/:id", userHandler.Get, require(domain.OpUserRead))
	users.PUT("/:id", userHandler.Update, require(domain.OpUserUpdate))
	users.DELETE("/:id", userHandler.Delete, require(domain.OpUserDelete))

	// --- Coupons ---
	couponHandler := handler.NewCouponHandler(deps.Coupons)
	coupons := secured.Group("/coupons")
	coupons.GET("", couponHandler.List, require(domain.OpCouponList))
	coupons.POST("", couponHandler.Create, require(domain.OpCouponCreate))
	coupons.POST("/upload", couponHandler.Upload, require(domain.OpCouponUpload))
	coupons.POST("/upload-excel", couponHandler.UploadExcel, require(domain.OpCouponUpload))
	coupons.GET("/my-created", couponHandler.ListCreated, require(domain.OpCouponListCreated))
	coupons.GET("/unassigned", couponHandler.ListUnassigned, require(domain.OpCouponListUnassigned))
	coupons.GET("/assignment-titles", couponHandler.ListTitles, require(domain.OpCouponListTitles))
	coupons.GET("/:id", couponHandler.Get, require(domain.OpCouponRead))
	coupons.PUT("/:id", couponHandler.Update, require(domain.OpCouponUpdate))
	coupons.DELETE("/:id", couponHandler.Delete, require(domain.OpCouponDelete))

	// --- Assignments ---
	assignmentHandler := handler.NewAssignmentHandler(deps.Assignments)
	assignments := secured.Group("/assignments")
	assignments.POST("", assignmentHandler.AssignPair, require(domain.OpAssign))
	assignments.POST("/bulk", assignmentHandler.AssignBulk,
		guarded(deps, "assign_bulk", require(domain.OpAssign))...)
	assignments.POST("/by-title", assignmentHandler.AssignByTitle,
		guarded(deps, "assign_title", require(domain.OpAssign))...)
	assignments.GET("/mine", assignmentHandler.ListMine, require(domain.OpAssignmentListMine))
	assignments.POST("/:id/use", assignmentHandler.MarkUsed, require(domain.OpAssignmentMarkUsed))

	// --- Audit ---
	auditHandler := handler.NewAuditHandler(deps.Audit)
	secured.GET("/audit/events", auditHandler.List, require(domain.OpAuditRead))

	return e
}

// guarded appends the idempotency guard for scope after the given middleware
// when a store is configured.
func guarded(deps Dependencies, scope string, mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if deps.Idempotency == nil {
		return mw
	}
	return append(mw, middleware.Idempotency(deps.Idempotency, scope, deps.Log))
}
