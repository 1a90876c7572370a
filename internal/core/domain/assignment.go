package domain

import "time"

// Assignment links one coupon to one user. At most one exists per (coupon, user).
type Assignment struct {
	ID         int64
	CouponID   int64
	UserID     int64
	IsUsed     bool
	AssignedAt time.Time
	UsedAt     *time.Time

	// Coupon is populated by queries that join the coupon row.
	Coupon *Coupon
}

// Pair is a requested (coupon, user) assignment.
type Pair struct {
	CouponID int64
	UserID   int64
}
