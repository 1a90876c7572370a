package ports

import (
	"context"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// CouponRepository defines persistence operations for coupons.
type CouponRepository interface {
	// Create inserts the coupon and sets its ID and CreatedAt.
	// A duplicate code yields domain.ErrCouponCodeExists.
	Create(ctx context.Context, c *domain.Coupon) error
	// CreateMany inserts all coupons in one transaction.
	CreateMany(ctx context.Context, coupons []*domain.Coupon) error
	FindByID(ctx context.Context, id int64) (*domain.Coupon, error)
	// ExistingCodes returns the subset of codes already stored.
	ExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error)
	List(ctx context.Context) ([]*domain.Coupon, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]*domain.Coupon, error)
	// ListUnassigned returns coupons without any assignment, in creation order.
	// A non-empty title restricts the result to that assignment title.
	ListUnassigned(ctx context.Context, title string) ([]*domain.Coupon, error)
	ListTitles(ctx context.Context) ([]domain.TitleSummary, error)
	Update(ctx context.Context, c *domain.Coupon) error
	// Delete removes the coupon; the store cascades to its assignments.
	Delete(ctx context.Context, id int64) error
}
