package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

const (
	defaultUserPage = 100
	maxUserPage     = 500
	minPasswordLen  = 6
)

// UserService implements account management.
type UserService struct {
	repo   ports.UserRepository
	events ports.EventPublisher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, events ports.EventPublisher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, events: publisherOrNop(events), log: log}
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, caller domain.Principal) (*domain.User, error) {
	if err := domain.Authorize(caller, domain.OpProfileRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, caller.UserID)
}

// Get lets administrators read any account and everybody else only their own.
func (s *UserService) Get(ctx context.Context, caller domain.Principal, id int64) (*domain.User, error) {
	if err := domain.Authorize(caller, domain.OpUserRead); err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && caller.UserID != id {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, caller domain.Principal, skip, limit int) ([]*domain.User, error) {
	if err := domain.Authorize(caller, domain.OpUserList); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultUserPage
	}
	if limit > maxUserPage {
		limit = maxUserPage
	}
	return s.repo.List(ctx, skip, limit)
}

func (s *UserService) Create(ctx context.Context, caller domain.Principal, input ports.CreateUserInput) (*domain.User, error) {
	if err := domain.Authorize(caller, domain.OpUserCreate); err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if input.Role != "" {
		r, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, domain.NewValidationError("role must be one of: admin manager user")
		}
		role = r
	}

	user, err := createAccount(ctx, s.repo, input.Username, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Int64("created_by", caller.UserID).Msg("user created")
	return user, nil
}

// Update changes email and/or role. Absent fields keep their stored value.
func (s *UserService) Update(ctx context.Context, caller domain.Principal, id int64, patch domain.UserPatch) (*domain.User, error) {
	if err := domain.Authorize(caller, domain.OpUserUpdate); err != nil {
		return nil, err
	}
	if patch.Email == nil && patch.Role == nil {
		return nil, domain.NewValidationError("no fields to update")
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if patch.Role != nil {
		r, ok := domain.ParseRole(string(*patch.Role))
		if !ok {
			return nil, domain.NewValidationError("role must be one of: admin manager user")
		}
		patch.Role = &r
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the account; coupons it created and every assignment that
// references it go with it.
func (s *UserService) Delete(ctx context.Context, caller domain.Principal, id int64) error {
	if err := domain.Authorize(caller, domain.OpUserDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	ev := newEvent(domain.EventUserDeleted, caller)
	ev.UserID = id
	s.events.Publish(ev)

	s.log.Info().Int64("user_id", id).Int64("deleted_by", caller.UserID).Msg("user deleted")
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no account exists.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := createAccount(ctx, s.repo, username, email, password, domain.RoleAdmin); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info().Str("username", username).Msg("bootstrap administrator created")
	return true, nil
}

func createAccount(ctx context.Context, repo ports.UserRepository, username, email, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func validateEmail(email string) error {
	if email == "" {
		return domain.NewValidationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError("email must be a valid email")
	}
	return nil
}
