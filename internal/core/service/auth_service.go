package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/pkg/metrics"
)

// LoginLimiter abstracts the login throttling store (Redis).
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// AuthOption configures optional collaborators of AuthService.
type AuthOption func(*AuthService)

// WithDirectory enables directory (LDAP) login.
func WithDirectory(d ports.Directory) AuthOption {
	return func(s *AuthService) { s.directory = d }
}

// WithLoginLimiter enables login throttling.
func WithLoginLimiter(l LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// AuthService implements registration and login.
type AuthService struct {
	users     ports.UserRepository
	directory ports.Directory
	limiter   LoginLimiter
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger, opts ...AuthOption) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	s := &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a self-service account with the user role.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return createAccount(ctx, s.users, input.Username, input.Email, input.Password, domain.RoleUser)
}

// Login verifies credentials and returns a signed bearer token.
func (s *AuthService) Login(ctx context.Context, input ports.LoginInput) (string, *domain.User, error) {
	method := "password"
	if input.UseDirectory {
		method = "directory"
	}
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	key := throttleKey(input.RemoteAddr, username)
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("login throttle check failed, continuing")
		} else if !allowed {
			metrics.LoginAttemptsTotal.WithLabelValues(method, "throttled").Inc()
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	var (
		user *domain.User
		err  error
	)
	if input.UseDirectory {
		user, err = s.loginDirectory(ctx, username, input.Password)
	} else {
		user, err = s.loginPassword(ctx, username, input.Password)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues(method, "rejected").Inc()
		}
		return "", nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login throttle")
		}
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(method, "ok").Inc()
	return token, user, nil
}

func (s *AuthService) loginPassword(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// loginDirectory binds against the directory and provisions a local user
// with the user role on the first successful login.
func (s *AuthService) loginDirectory(ctx context.Context, username, password string) (*domain.User, error) {
	if s.directory == nil {
		return nil, domain.NewValidationError("directory login is not enabled")
	}

	entry, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, entry.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	// Directory users never log in with a local password.
	hash, err := bcrypt.GenerateFromPassword([]byte(randomSecret()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	created, err := s.users.Create(ctx, &domain.User{
		Username:     entry.Username,
		Email:        entry.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrUserExists) {
		return s.users.FindByUsername(ctx, entry.Username)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Msg("directory user provisioned")
	return created, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func throttleKey(remoteAddr, username string) string {
	return strings.ToLower(username) + "@" + remoteAddr
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
