package ports

import (
	"context"
	"time"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// CreateCouponInput carries the fields of a new coupon.
type CreateCouponInput struct {
	Code            string
	Description     string
	DiscountAmount  int
	DiscountType    string
	ExpirationDate  *time.Time
	Brand           string
	AssignmentTitle string
}

// CouponService defines use-case operations on the coupon catalogue.
type CouponService interface {
	Create(ctx context.Context, caller domain.Principal, input CreateCouponInput) (*domain.Coupon, error)
	// Upload creates all coupons or none.
	Upload(ctx context.Context, caller domain.Principal, inputs []CreateCouponInput) ([]*domain.Coupon, error)
	Get(ctx context.Context, caller domain.Principal, id int64) (*domain.Coupon, error)
	List(ctx context.Context, caller domain.Principal) ([]*domain.Coupon, error)
	ListCreated(ctx context.Context, caller domain.Principal) ([]*domain.Coupon, error)
	ListUnassigned(ctx context.Context, caller domain.Principal, title string) ([]*domain.Coupon, error)
	ListTitles(ctx context.Context, caller domain.Principal) ([]domain.TitleSummary, error)
	Update(ctx context.Context, caller domain.Principal, id int64, patch domain.CouponPatch) (*domain.Coupon, error)
	Delete(ctx context.Context, caller domain.Principal, id int64) error
}
