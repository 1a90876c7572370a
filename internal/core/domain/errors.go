package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrTooManyAttempts    = errors.New("too many attempts")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponCodeExists   = errors.New("coupon code already exists")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentExists   = errors.New("coupon already assigned to this user")
	ErrAlreadyUsed        = errors.New("coupon already used")
	ErrReferenceNotFound  = errors.New("referenced coupon or user not found")
	ErrDuplicateRequest   = errors.New("duplicate request")

	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected input. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }
