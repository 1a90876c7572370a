package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// tokenRequest is accepted as JSON or as an HTML form.
type tokenRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	LDAP     bool   `json:"ldap"     form:"ldap"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// --- Users ---

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin manager user"`
}

type updateUserRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role"  validate:"omitempty,oneof=admin manager user"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Coupons ---

type couponRequest struct {
	Code            string     `json:"code"             validate:"required"`
	Description     string     `json:"description"`
	DiscountAmount  int        `json:"discount_amount"  validate:"required,gt=0"`
	DiscountType    string     `json:"discount_type"    validate:"required,discount_type"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	Brand           string     `json:"brand"`
	AssignmentTitle string     `json:"assignment_title"`
}

type updateCouponRequest struct {
	Code            *string    `json:"code"             validate:"omitempty,min=1"`
	Description     *string    `json:"description"`
	DiscountAmount  *int       `json:"discount_amount"  validate:"omitempty,gt=0"`
	DiscountType    *string    `json:"discount_type"    validate:"omitempty,discount_type"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	IsActive        *bool      `json:"is_active"`
	Brand           *string    `json:"brand"`
	AssignmentTitle *string    `json:"assignment_title"`
}

type couponResponse struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	Description     string     `json:"description"`
	DiscountAmount  int        `json:"discount_amount"`
	DiscountType    string     `json:"discount_type"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	CreatedByID     int64      `json:"created_by_id"`
	Brand           string     `json:"brand"`
	AssignmentTitle string     `json:"assignment_title"`
}

type uploadResponse struct {
	Created int              `json:"created"`
	Coupons []couponResponse `json:"coupons"`
}

type titleResponse struct {
	Title      string `json:"title"`
	Unassigned int    `json:"unassigned"`
}

// --- Assignments ---

type assignPairRequest struct {
	CouponID int64 `json:"coupon_id" validate:"required,gt=0"`
	UserID   int64 `json:"user_id"   validate:"required,gt=0"`
}

type bulkAssignRequest struct {
	Pairs []assignPairRequest `json:"pairs" validate:"required,min=1,dive"`
}

type titleAssignRequest struct {
	Title   string  `json:"title"    validate:"required"`
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

type assignmentResponse struct {
	ID         int64           `json:"id"`
	CouponID   int64           `json:"coupon_id"`
	UserID     int64           `json:"user_id"`
	IsUsed     bool            `json:"is_used"`
	AssignedAt time.Time       `json:"assigned_at"`
	UsedAt     *time.Time      `json:"used_at"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Coupon     *couponResponse `json:"coupon,omitempty"`
}

type batchAssignResponse struct {
	Created     int                  `json:"created"`
	Assignments []assignmentResponse `json:"assignments"`
}

// --- Audit ---

type auditEventResponse struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	ActorID      int64             `json:"actor_id"`
	CouponID     int64             `json:"coupon_id,omitempty"`
	UserID       int64             `json:"user_id,omitempty"`
	AssignmentID int64             `json:"assignment_id,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Details      map[string]string `json:"details,omitempty"`
}
