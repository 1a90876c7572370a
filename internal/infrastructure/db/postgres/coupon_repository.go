package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

const couponColumns = `c.id, c.code, c.description, c.discount_amount, c.discount_type, c.expiration_date,
	c.is_active, c.created_at, c.created_by, c.brand, c.assignment_title`

const insertCoupon = `
	INSERT INTO coupons (code, description, discount_amount, discount_type, expiration_date,
		is_active, created_by, brand, assignment_title)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at`

// CouponRepository implements ports.CouponRepository on the coupons table.
type CouponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var (
		c     domain.Coupon
		dtype string
		exp   sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountAmount, &dtype, &exp,
		&c.IsActive, &c.CreatedAt, &c.CreatedByID, &c.Brand, &c.AssignmentTitle,
	); err != nil {
		return nil, err
	}
	c.DiscountType = domain.DiscountType(dtype)
	c.ExpirationDate = timePtr(exp)
	return &c, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertOne(ctx context.Context, q querier, c *domain.Coupon) error {
	err := q.QueryRowContext(ctx, insertCoupon,
		c.Code, c.Description, c.DiscountAmount, string(c.DiscountType), nullTime(c.ExpirationDate),
		c.IsActive, c.CreatedByID, c.Brand, c.AssignmentTitle,
	).Scan(&c.ID, &c.CreatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrCouponCodeExists
	case isForeignKeyViolation(err):
		return domain.ErrReferenceNotFound
	default:
		return fmt.Errorf("insert coupon: %w", err)
	}
}

func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	return insertOne(ctx, r.db, c)
}

// CreateMany inserts all coupons in one transaction; any failure rolls back.
func (r *CouponRepository) CreateMany(ctx context.Context, coupons []*domain.Coupon) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range coupons {
		if err := insertOne(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit coupons: %w", err)
	}
	return nil
}

func (r *CouponRepository) FindByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return c, nil
}

func (r *CouponRepository) ExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code FROM coupons WHERE code = ANY($1)`, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("existing codes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		out[code] = struct{}{}
	}
	return out, rows.Err()
}

func (r *CouponRepository) List(ctx context.Context) ([]*domain.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons c ORDER BY c.id`)
}

func (r *CouponRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*domain.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons c WHERE c.created_by = $1 ORDER BY c.id`, creatorID)
}

func (r *CouponRepository) ListUnassigned(ctx context.Context, title string) ([]*domain.Coupon, error) {
	const query = `
		SELECT ` + couponColumns + `
		FROM coupons c
		WHERE NOT EXISTS (SELECT 1 FROM coupon_assignments a WHERE a.coupon_id = c.id)
		  AND ($1 = '' OR c.assignment_title = $1)
		ORDER BY c.created_at, c.id`
	return r.list(ctx, query, title)
}

func (r *CouponRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]*domain.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *CouponRepository) ListTitles(ctx context.Context) ([]domain.TitleSummary, error) {
	const query = `
		SELECT c.assignment_title,
		       COUNT(*) FILTER (WHERE NOT EXISTS (SELECT 1 FROM coupon_assignments a WHERE a.coupon_id = c.id))
		FROM coupons c
		WHERE c.assignment_title <> ''
		GROUP BY c.assignment_title
		ORDER BY c.assignment_title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	titles := make([]domain.TitleSummary, 0)
	for rows.Next() {
		var t domain.TitleSummary
		if err := rows.Scan(&t.Title, &t.Unassigned); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

func (r *CouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	const query = `
		UPDATE coupons
		SET code = $2, description = $3, discount_amount = $4, discount_type = $5,
		    expiration_date = $6, is_active = $7, brand = $8, assignment_title = $9
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.Code, c.Description, c.DiscountAmount, string(c.DiscountType),
		nullTime(c.ExpirationDate), c.IsActive, c.Brand, c.AssignmentTitle,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCouponCodeExists
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	return requireOne(res, domain.ErrCouponNotFound)
}

func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return requireOne(res, domain.ErrCouponNotFound)
}
