package ports

import (
	"context"
	"time"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// AssignmentRepository is the ledger of coupon -> user assignments.
type AssignmentRepository interface {
	// Create inserts a single assignment. An existing (coupon, user) pair
	// yields domain.ErrAssignmentExists; a missing coupon or user yields
	// domain.ErrReferenceNotFound.
	Create(ctx context.Context, pair domain.Pair, assignedAt time.Time) (*domain.Assignment, error)

	// ExistingPairs returns which of the given pairs are already in the ledger.
	ExistingPairs(ctx context.Context, pairs []domain.Pair) (map[domain.Pair]struct{}, error)

	// CreateBatch persists pairs atomically, in order. Pairs that collide with
	// a row committed concurrently are skipped; any other failure rolls back
	// the whole batch. The returned slice holds only inserted rows.
	CreateBatch(ctx context.Context, pairs []domain.Pair, assignedAt time.Time) ([]*domain.Assignment, error)

	FindByID(ctx context.Context, id int64) (*domain.Assignment, error)

	// MarkUsed flips is_used from false to true and returns the updated row.
	// It returns domain.ErrAssignmentNotFound when no unused assignment with
	// that id belongs to userID.
	MarkUsed(ctx context.Context, id, userID int64, usedAt time.Time) (*domain.Assignment, error)

	// ListByUser returns the user's assignments with the coupon joined.
	ListByUser(ctx context.Context, userID int64, unusedOnly bool) ([]*domain.Assignment, error)
}
