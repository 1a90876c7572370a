package domain

import (
	"fmt"
	"strings"
	"time"
)

// DiscountType is the kind of discount a coupon grants.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ParseDiscountType folds case and surrounding space so "Percentage" and
// " fixed" name the known kinds. The result may still be invalid.
func ParseDiscountType(s string) DiscountType {
	return DiscountType(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether t is a known discount kind.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Coupon is a discount that can be handed out to users.
type Coupon struct {
	ID              int64
	Code            string
	Description     string
	DiscountAmount  int
	DiscountType    DiscountType
	ExpirationDate  *time.Time
	IsActive        bool
	CreatedAt       time.Time
	CreatedByID     int64
	Brand           string
	AssignmentTitle string
}

// CouponPatch carries a partial coupon update. Nil fields keep their stored value.
type CouponPatch struct {
	Code            *string
	Description     *string
	DiscountAmount  *int
	DiscountType    *DiscountType
	ExpirationDate  *time.Time
	IsActive        *bool
	Brand           *string
	AssignmentTitle *string
}

// Empty reports whether the patch changes nothing.
func (p CouponPatch) Empty() bool {
	return p.Code == nil && p.Description == nil && p.DiscountAmount == nil &&
		p.DiscountType == nil && p.ExpirationDate == nil && p.IsActive == nil &&
		p.Brand == nil && p.AssignmentTitle == nil
}

// Apply returns a copy of c with the patch fields set.
func (p CouponPatch) Apply(c Coupon) Coupon {
	if p.Code != nil {
		c.Code = strings.TrimSpace(*p.Code)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.DiscountAmount != nil {
		c.DiscountAmount = *p.DiscountAmount
	}
	if p.DiscountType != nil {
		c.DiscountType = ParseDiscountType(string(*p.DiscountType))
	}
	if p.ExpirationDate != nil {
		exp := *p.ExpirationDate
		c.ExpirationDate = &exp
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.Brand != nil {
		c.Brand = *p.Brand
	}
	if p.AssignmentTitle != nil {
		c.AssignmentTitle = strings.TrimSpace(*p.AssignmentTitle)
	}
	return c
}

// Validate checks the discount terms of a coupon.
func (c Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return NewValidationError("code is required")
	}
	if !c.DiscountType.Valid() {
		return NewValidationError(fmt.Sprintf("discount_type must be one of: %s %s", DiscountPercentage, DiscountFixed))
	}
	if c.DiscountAmount <= 0 {
		return NewValidationError("discount_amount must be greater than 0")
	}
	if c.DiscountType == DiscountPercentage && c.DiscountAmount > 100 {
		return NewValidationError("percentage discount_amount must be at most 100")
	}
	return nil
}

// TitleSummary counts the unassigned coupons sharing an assignment title.
type TitleSummary struct {
	Title      string
	Unassigned int
}
