package ports

import (
	"context"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// RegisterInput carries a self-service signup.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries credentials. UseDirectory selects the external
// directory instead of the local password hash.
type LoginInput struct {
	Username     string
	Password     string
	UseDirectory bool
	// RemoteAddr scopes login throttling.
	RemoteAddr string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input LoginInput) (string, *domain.User, error)
}
