package ports

import (
	"context"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// AssignmentService pairs coupons with users and redeems assignments.
type AssignmentService interface {
	AssignPair(ctx context.Context, caller domain.Principal, pair domain.Pair) (*domain.Assignment, error)
	// AssignBulkPairs returns only the assignments created by this call.
	AssignBulkPairs(ctx context.Context, caller domain.Principal, pairs []domain.Pair) ([]*domain.Assignment, error)
	// AssignByTitle matches unassigned coupons of a title 1:1 with userIDs.
	AssignByTitle(ctx context.Context, caller domain.Principal, title string, userIDs []int64) ([]*domain.Assignment, error)
	MarkUsed(ctx context.Context, caller domain.Principal, assignmentID int64) (*domain.Assignment, error)
	ListMine(ctx context.Context, caller domain.Principal, unusedOnly bool) ([]*domain.Assignment, error)
}

// AuditService exposes the audit trail to administrators.
type AuditService interface {
	List(ctx context.Context, caller domain.Principal, filter AuditFilter) ([]domain.CouponEvent, error)
}
