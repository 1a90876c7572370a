package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

var couponCols = []string{
	"id", "code", "description", "discount_amount", "discount_type", "expiration_date",
	"is_active", "created_at", "created_by", "brand", "assignment_title",
}

func sampleCoupon(code string) *domain.Coupon {
	return &domain.Coupon{
		Code:           code,
		DiscountAmount: 10,
		DiscountType:   domain.DiscountPercentage,
		IsActive:       true,
		CreatedByID:    2,
	}
}

func TestCouponRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO coupons").
		WithArgs("A", "", 10, "percentage", nil, true, int64(2), "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))

	c := sampleCoupon("A")
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, now, c.CreatedAt)
}

func TestCouponRepository_Create_DuplicateCode(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery("INSERT INTO coupons").WillReturnError(&pq.Error{Code: codeUniqueViolation})

	err := repo.Create(context.Background(), sampleCoupon("A"))
	require.ErrorIs(t, err, domain.ErrCouponCodeExists)
}

func TestCouponRepository_CreateMany_Commits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO coupons").WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectQuery("INSERT INTO coupons").WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, now))
	mock.ExpectCommit()

	batch := []*domain.Coupon{sampleCoupon("A"), sampleCoupon("B")}
	require.NoError(t, repo.CreateMany(context.Background(), batch))
	assert.Equal(t, int64(1), batch[0].ID)
	assert.Equal(t, int64(2), batch[1].ID)
}

func TestCouponRepository_CreateMany_RollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO coupons").WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectQuery("INSERT INTO coupons").WillReturnError(&pq.Error{Code: codeUniqueViolation})
	mock.ExpectRollback()

	err := repo.CreateMany(context.Background(), []*domain.Coupon{sampleCoupon("A"), sampleCoupon("A")})
	require.ErrorIs(t, err, domain.ErrCouponCodeExists)
}

func TestCouponRepository_FindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now()
	exp := now.Add(24 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM coupons c WHERE c.id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(couponCols).
			AddRow(5, "SUMMER", "desc", 20, "fixed", exp, true, now, 2, "acme", "PROMO"))
	mock.ExpectQuery("SELECT (.+) FROM coupons c WHERE c.id").
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(couponCols))

	c, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountFixed, c.DiscountType)
	require.NotNil(t, c.ExpirationDate)
	assert.True(t, exp.Equal(*c.ExpirationDate))
	assert.Equal(t, "PROMO", c.AssignmentTitle)

	_, err = repo.FindByID(context.Background(), 6)
	require.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestCouponRepository_CreateThenFindByID_Defaults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("INSERT INTO coupons").
		WithArgs("ROUND", "", 10, "percentage", nil, true, int64(2), "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(21, now))
	mock.ExpectQuery("SELECT (.+) FROM coupons c WHERE c.id").
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows(couponCols).
			AddRow(21, "ROUND", "", 10, "percentage", nil, true, now, 2, "", ""))

	created := sampleCoupon("ROUND")
	require.NoError(t, repo.Create(context.Background(), created))

	got, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ExpirationDate)
	assert.Empty(t, got.AssignmentTitle)
	assert.True(t, got.IsActive)
	assert.Equal(t, created, got)
}

func TestCouponRepository_ExistingCodes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery("SELECT code FROM coupons WHERE code = ANY").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("B"))

	got, err := repo.ExistingCodes(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "B")
}

func TestCouponRepository_ListUnassigned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	now := time.Now()

	mock.ExpectQuery("NOT EXISTS (.+) ORDER BY c.created_at, c.id").
		WithArgs("PROMO").
		WillReturnRows(sqlmock.NewRows(couponCols).
			AddRow(1, "C1", "", 10, "percentage", nil, true, now, 2, "", "PROMO").
			AddRow(2, "C2", "", 10, "percentage", nil, true, now, 2, "", "PROMO"))

	coupons, err := repo.ListUnassigned(context.Background(), "PROMO")
	require.NoError(t, err)
	require.Len(t, coupons, 2)
	assert.Nil(t, coupons[0].ExpirationDate)
	assert.Equal(t, "C2", coupons[1].Code)
}

func TestCouponRepository_ListTitles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery("GROUP BY c.assignment_title").
		WillReturnRows(sqlmock.NewRows([]string{"assignment_title", "count"}).
			AddRow("PROMO", 3).
			AddRow("WINTER", 0))

	titles, err := repo.ListTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.TitleSummary{{Title: "PROMO", Unassigned: 3}, {Title: "WINTER", Unassigned: 0}}, titles)
}

func TestCouponRepository_UpdateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectExec("UPDATE coupons").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE coupons").WillReturnError(&pq.Error{Code: codeUniqueViolation})
	mock.ExpectExec("DELETE FROM coupons").WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM coupons").WithArgs(int64(8)).WillReturnError(errors.New("boom"))

	c := sampleCoupon("A")
	c.ID = 7
	require.ErrorIs(t, repo.Update(context.Background(), c), domain.ErrCouponNotFound)
	require.ErrorIs(t, repo.Update(context.Background(), c), domain.ErrCouponCodeExists)
	require.NoError(t, repo.Delete(context.Background(), 7))
	require.Error(t, repo.Delete(context.Background(), 8))
}
