package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

const assignmentColumns = `id, coupon_id, user_id, is_used, assigned_at, used_at`

// AssignmentRepository implements ports.AssignmentRepository on the
// coupon_assignments table.
type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var (
		a    domain.Assignment
		used sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.CouponID, &a.UserID, &a.IsUsed, &a.AssignedAt, &used); err != nil {
		return nil, err
	}
	a.UsedAt = timePtr(used)
	return &a, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, pair domain.Pair, assignedAt time.Time) (*domain.Assignment, error) {
	const query = `
		INSERT INTO coupon_assignments (coupon_id, user_id, assigned_at)
		VALUES ($1, $2, $3)
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, pair.CouponID, pair.UserID, assignedAt))
	switch {
	case err == nil:
		return a, nil
	case isUniqueViolation(err):
		return nil, domain.ErrAssignmentExists
	case isForeignKeyViolation(err):
		return nil, domain.ErrReferenceNotFound
	default:
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
}

func (r *AssignmentRepository) ExistingPairs(ctx context.Context, pairs []domain.Pair) (map[domain.Pair]struct{}, error) {
	out := make(map[domain.Pair]struct{})
	if len(pairs) == 0 {
		return out, nil
	}

	couponIDs := make([]int64, len(pairs))
	userIDs := make([]int64, len(pairs))
	for i, p := range pairs {
		couponIDs[i] = p.CouponID
		userIDs[i] = p.UserID
	}

	const query = `
		SELECT a.coupon_id, a.user_id
		FROM coupon_assignments a
		JOIN unnest($1::bigint[], $2::bigint[]) AS p(coupon_id, user_id)
		  ON a.coupon_id = p.coupon_id AND a.user_id = p.user_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(couponIDs), pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("existing pairs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Pair
		if err := rows.Scan(&p.CouponID, &p.UserID); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// CreateBatch inserts pairs in order inside one transaction. A pair that
// collides with a row committed by a concurrent request is skipped by
// ON CONFLICT; a missing coupon or user aborts the whole batch.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, pairs []domain.Pair, assignedAt time.Time) ([]*domain.Assignment, error) {
	const query = `
		INSERT INTO coupon_assignments (coupon_id, user_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (coupon_id, user_id) DO NOTHING
		RETURNING ` + assignmentColumns

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := make([]*domain.Assignment, 0, len(pairs))
	for _, p := range pairs {
		a, err := scanAssignment(tx.QueryRowContext(ctx, query, p.CouponID, p.UserID, assignedAt))
		switch {
		case err == nil:
			created = append(created, a)
		case errors.Is(err, sql.ErrNoRows):
			// conflict: already assigned
		case isForeignKeyViolation(err):
			return nil, domain.ErrReferenceNotFound
		default:
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignments: %w", err)
	}
	return created, nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM coupon_assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return a, nil
}

// MarkUsed flips is_used with a conditional update so two concurrent
// redemptions cannot both succeed.
func (r *AssignmentRepository) MarkUsed(ctx context.Context, id, userID int64, usedAt time.Time) (*domain.Assignment, error) {
	const query = `
		UPDATE coupon_assignments
		SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND user_id = $3 AND is_used = FALSE
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id, usedAt, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("mark used: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepository) ListByUser(ctx context.Context, userID int64, unusedOnly bool) ([]*domain.Assignment, error) {
	const query = `
		SELECT a.id, a.coupon_id, a.user_id, a.is_used, a.assigned_at, a.used_at, ` + couponColumns + `
		FROM coupon_assignments a
		JOIN coupons c ON c.id = a.coupon_id
		WHERE a.user_id = $1 AND (NOT $2 OR a.is_used = FALSE)
		ORDER BY a.assigned_at DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, unusedOnly)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Assignment, 0)
	for rows.Next() {
		var (
			a     domain.Assignment
			c     domain.Coupon
			used  sql.NullTime
			exp   sql.NullTime
			dtype string
		)
		if err := rows.Scan(
			&a.ID, &a.CouponID, &a.UserID, &a.IsUsed, &a.AssignedAt, &used,
			&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &dtype, &exp,
			&c.IsActive, &c.CreatedAt, &c.CreatedByID, &c.Brand, &c.AssignmentTitle,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.UsedAt = timePtr(used)
		c.DiscountType = domain.DiscountType(dtype)
		c.ExpirationDate = timePtr(exp)
		a.Coupon = &c
		items = append(items, &a)
	}
	return items, rows.Err()
}
