package ports

import (
	"context"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and returns it with ID and CreatedAt set.
	// Duplicate username or email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	// Delete removes the user; the store cascades to created coupons and assignments.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
