package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/couponhub/coupon-service/internal/api/middleware"
	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// --- Service stubs ---

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (string, *domain.User, error) {
	return s.loginFn(ctx, in)
}

// stubUserService embeds the port so tests only implement what they call.
type stubUserService struct {
	ports.UserService
	listFn   func(caller domain.Principal, skip, limit int) ([]*domain.User, error)
	updateFn func(caller domain.Principal, id int64, patch domain.UserPatch) (*domain.User, error)
	deleteFn func(caller domain.Principal, id int64) error
}

func (s *stubUserService) List(_ context.Context, caller domain.Principal, skip, limit int) ([]*domain.User, error) {
	return s.listFn(caller, skip, limit)
}

func (s *stubUserService) Update(_ context.Context, caller domain.Principal, id int64, patch domain.UserPatch) (*domain.User, error) {
	return s.updateFn(caller, id, patch)
}

func (s *stubUserService) Delete(_ context.Context, caller domain.Principal, id int64) error {
	return s.deleteFn(caller, id)
}

type stubCouponService struct {
	ports.CouponService
	createFn func(caller domain.Principal, in ports.CreateCouponInput) (*domain.Coupon, error)
	uploadFn func(caller domain.Principal, in []ports.CreateCouponInput) ([]*domain.Coupon, error)
	updateFn func(caller domain.Principal, id int64, patch domain.CouponPatch) (*domain.Coupon, error)
	titlesFn func(caller domain.Principal) ([]domain.TitleSummary, error)
	getFn    func(caller domain.Principal, id int64) (*domain.Coupon, error)
}

func (s *stubCouponService) Create(_ context.Context, caller domain.Principal, in ports.CreateCouponInput) (*domain.Coupon, error) {
	return s.createFn(caller, in)
}

func (s *stubCouponService) Upload(_ context.Context, caller domain.Principal, in []ports.CreateCouponInput) ([]*domain.Coupon, error) {
	return s.uploadFn(caller, in)
}

func (s *stubCouponService) Update(_ context.Context, caller domain.Principal, id int64, patch domain.CouponPatch) (*domain.Coupon, error) {
	return s.updateFn(caller, id, patch)
}

func (s *stubCouponService) ListTitles(_ context.Context, caller domain.Principal) ([]domain.TitleSummary, error) {
	return s.titlesFn(caller)
}

func (s *stubCouponService) Get(_ context.Context, caller domain.Principal, id int64) (*domain.Coupon, error) {
	return s.getFn(caller, id)
}

type stubAssignmentService struct {
	ports.AssignmentService
	pairFn     func(caller domain.Principal, p domain.Pair) (*domain.Assignment, error)
	bulkFn     func(caller domain.Principal, pairs []domain.Pair) ([]*domain.Assignment, error)
	titleFn    func(caller domain.Principal, title string, userIDs []int64) ([]*domain.Assignment, error)
	markUsedFn func(caller domain.Principal, id int64) (*domain.Assignment, error)
	listMineFn func(caller domain.Principal, unusedOnly bool) ([]*domain.Assignment, error)
}

func (s *stubAssignmentService) AssignPair(_ context.Context, caller domain.Principal, p domain.Pair) (*domain.Assignment, error) {
	return s.pairFn(caller, p)
}

func (s *stubAssignmentService) AssignBulkPairs(_ context.Context, caller domain.Principal, pairs []domain.Pair) ([]*domain.Assignment, error) {
	return s.bulkFn(caller, pairs)
}

func (s *stubAssignmentService) AssignByTitle(_ context.Context, caller domain.Principal, title string, userIDs []int64) ([]*domain.Assignment, error) {
	return s.titleFn(caller, title, userIDs)
}

func (s *stubAssignmentService) MarkUsed(_ context.Context, caller domain.Principal, id int64) (*domain.Assignment, error) {
	return s.markUsedFn(caller, id)
}

func (s *stubAssignmentService) ListMine(_ context.Context, caller domain.Principal, unusedOnly bool) ([]*domain.Assignment, error) {
	return s.listMineFn(caller, unusedOnly)
}

type stubAuditService struct {
	listFn func(caller domain.Principal, f ports.AuditFilter) ([]domain.CouponEvent, error)
}

func (s *stubAuditService) List(_ context.Context, caller domain.Principal, f ports.AuditFilter) ([]domain.CouponEvent, error) {
	return s.listFn(caller, f)
}

// --- Request helpers ---

var (
	admin   = domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	manager = domain.Principal{UserID: 2, Username: "mgr", Role: domain.RoleManager}
	member  = domain.Principal{UserID: 3, Username: "alice", Role: domain.RoleUser}
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context for the given principal. A zero
// principal leaves the request anonymous.
func newContext(e *echo.Echo, method, target string, body io.Reader, contentType string, p domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p.Authenticated() {
		c.Set(middleware.PrincipalKey, p)
	}
	return c, rec
}

func jsonContext(e *echo.Echo, method, target, body string, p domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(e, method, target, strings.NewReader(body), echo.MIMEApplicationJSON, p)
}

// expectHTTPError asserts err is an echo.HTTPError with the given status.
func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected status %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}
