package ports

import (
	"context"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// CreateUserInput carries an administrator-created account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	// Role defaults to domain.RoleUser when empty.
	Role string
}

// UserService defines use-case operations on user accounts. Every method
// authorizes the caller before touching storage.
type UserService interface {
	Me(ctx context.Context, caller domain.Principal) (*domain.User, error)
	Get(ctx context.Context, caller domain.Principal, id int64) (*domain.User, error)
	List(ctx context.Context, caller domain.Principal, skip, limit int) ([]*domain.User, error)
	Create(ctx context.Context, caller domain.Principal, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, caller domain.Principal, id int64, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, caller domain.Principal, id int64) error
}
