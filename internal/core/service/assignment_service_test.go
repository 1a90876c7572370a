package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

func newAssignmentFixture() (*AssignmentService, *memStore, *recordingPublisher) {
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewAssignmentService(stubAssignmentRepo{store}, stubCouponRepo{store}, pub, zerolog.Nop())
	return svc, store, pub
}

func TestAssignmentService_AssignPair_Success(t *testing.T) {
	svc, store, pub := newAssignmentFixture()
	u := store.seedUser("bob", domain.RoleUser)
	c := store.seedCoupon("C1", "", time.Now())

	a, err := svc.AssignPair(context.Background(), managerPrincipal(50), domain.Pair{CouponID: c, UserID: u})
	if err != nil {
		t.Fatalf("AssignPair returned error: %v", err)
	}
	if a.CouponID != c || a.UserID != u || a.IsUsed {
		t.Fatalf("unexpected assignment: %+v", a)
	}
	if got := len(pub.ofType(domain.EventAssignmentCreated)); got != 1 {
		t.Fatalf("expected 1 assignment.created event, got %d", got)
	}
}

func TestAssignmentService_AssignPair_Duplicate(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u := store.seedUser("bob", domain.RoleUser)
	c := store.seedCoupon("C1", "", time.Now())
	pair := domain.Pair{CouponID: c, UserID: u}

	if _, err := svc.AssignPair(context.Background(), adminPrincipal(), pair); err != nil {
		t.Fatalf("first AssignPair returned error: %v", err)
	}
	_, err := svc.AssignPair(context.Background(), adminPrincipal(), pair)
	if !errors.Is(err, domain.ErrAssignmentExists) {
		t.Fatalf("expected ErrAssignmentExists, got %v", err)
	}
}

func TestAssignmentService_AssignPair_MissingReference(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u := store.seedUser("bob", domain.RoleUser)

	_, err := svc.AssignPair(context.Background(), adminPrincipal(), domain.Pair{CouponID: 999, UserID: u})
	if !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestAssignmentService_AssignPair_Forbidden(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u := store.seedUser("bob", domain.RoleUser)
	c := store.seedCoupon("C1", "", time.Now())

	_, err := svc.AssignPair(context.Background(), userPrincipal(u), domain.Pair{CouponID: c, UserID: u})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(store.assignments) != 0 {
		t.Fatalf("forbidden call must not write, ledger has %d rows", len(store.assignments))
	}
}

func TestAssignmentService_AssignPair_Unauthenticated(t *testing.T) {
	svc, _, _ := newAssignmentFixture()

	_, err := svc.AssignPair(context.Background(), domain.Principal{}, domain.Pair{CouponID: 1, UserID: 1})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAssignmentService_Bulk_SkipsRepeatsInBatch(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	u2 := store.seedUser("u2", domain.RoleUser)
	c1 := store.seedCoupon("C1", "", time.Now())
	c2 := store.seedCoupon("C2", "", time.Now())

	created, err := svc.AssignBulkPairs(context.Background(), adminPrincipal(), []domain.Pair{
		{CouponID: c1, UserID: u1},
		{CouponID: c1, UserID: u1},
		{CouponID: c2, UserID: u2},
	})
	if err != nil {
		t.Fatalf("AssignBulkPairs returned error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(created))
	}
	if len(store.assignments) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(store.assignments))
	}
}

func TestAssignmentService_Bulk_SkipsExistingPairs(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	c1 := store.seedCoupon("C1", "", time.Now())
	c2 := store.seedCoupon("C2", "", time.Now())
	ctx := context.Background()

	if _, err := svc.AssignPair(ctx, adminPrincipal(), domain.Pair{CouponID: c1, UserID: u1}); err != nil {
		t.Fatalf("AssignPair returned error: %v", err)
	}

	created, err := svc.AssignBulkPairs(ctx, adminPrincipal(), []domain.Pair{
		{CouponID: c1, UserID: u1},
		{CouponID: c2, UserID: u1},
	})
	if err != nil {
		t.Fatalf("AssignBulkPairs returned error: %v", err)
	}
	if len(created) != 1 || created[0].CouponID != c2 {
		t.Fatalf("expected only (c2,u1) to be created, got %+v", created)
	}
}

func TestAssignmentService_Bulk_AllDuplicatesReturnsEmpty(t *testing.T) {
	svc, store, pub := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	c1 := store.seedCoupon("C1", "", time.Now())
	ctx := context.Background()

	if _, err := svc.AssignPair(ctx, adminPrincipal(), domain.Pair{CouponID: c1, UserID: u1}); err != nil {
		t.Fatalf("AssignPair returned error: %v", err)
	}

	created, err := svc.AssignBulkPairs(ctx, adminPrincipal(), []domain.Pair{{CouponID: c1, UserID: u1}})
	if err != nil {
		t.Fatalf("AssignBulkPairs returned error: %v", err)
	}
	if created == nil || len(created) != 0 {
		t.Fatalf("expected empty non-nil result, got %+v", created)
	}
	if got := len(pub.ofType(domain.EventAssignmentCreated)); got != 1 {
		t.Fatalf("expected no new events, got %d total", got)
	}
}

func TestAssignmentService_Bulk_IsAtomic(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	c1 := store.seedCoupon("C1", "", time.Now())

	_, err := svc.AssignBulkPairs(context.Background(), adminPrincipal(), []domain.Pair{
		{CouponID: c1, UserID: u1},
		{CouponID: 12345, UserID: u1},
	})
	if !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	if len(store.assignments) != 0 {
		t.Fatalf("failed batch must leave the ledger untouched, found %d rows", len(store.assignments))
	}
}

func TestAssignmentService_Bulk_Validation(t *testing.T) {
	svc, _, _ := newAssignmentFixture()

	cases := map[string][]domain.Pair{
		"empty":    nil,
		"zero ids": {{CouponID: 0, UserID: 1}},
		"negative": {{CouponID: 1, UserID: -3}},
	}
	for name, pairs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AssignBulkPairs(context.Background(), adminPrincipal(), pairs)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAssignmentService_ByTitle_PairsInCreationOrder(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	u2 := store.seedUser("u2", domain.RoleUser)
	u3 := store.seedUser("u3", domain.RoleUser)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Inserted out of order on purpose: c2 has the lower id but the later time.
	c2 := store.seedCoupon("C2", "PROMO", base.Add(time.Hour))
	c1 := store.seedCoupon("C1", "PROMO", base)
	store.seedCoupon("OTHER", "WINTER", base)

	created, err := svc.AssignByTitle(context.Background(), managerPrincipal(50), "PROMO", []int64{u1, u2, u3})
	if err != nil {
		t.Fatalf("AssignByTitle returned error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(created))
	}
	if created[0].CouponID != c1 || created[0].UserID != u1 {
		t.Fatalf("expected (c1,u1) first, got (%d,%d)", created[0].CouponID, created[0].UserID)
	}
	if created[1].CouponID != c2 || created[1].UserID != u2 {
		t.Fatalf("expected (c2,u2) second, got (%d,%d)", created[1].CouponID, created[1].UserID)
	}
}

func TestAssignmentService_ByTitle_SkipsAssignedCoupons(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)
	u2 := store.seedUser("u2", domain.RoleUser)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := store.seedCoupon("C1", "PROMO", base)
	c2 := store.seedCoupon("C2", "PROMO", base.Add(time.Minute))
	ctx := context.Background()

	if _, err := svc.AssignPair(ctx, adminPrincipal(), domain.Pair{CouponID: c1, UserID: u1}); err != nil {
		t.Fatalf("AssignPair returned error: %v", err)
	}

	created, err := svc.AssignByTitle(ctx, adminPrincipal(), "PROMO", []int64{u2, u2})
	if err != nil {
		t.Fatalf("AssignByTitle returned error: %v", err)
	}
	if len(created) != 1 || created[0].CouponID != c2 || created[0].UserID != u2 {
		t.Fatalf("expected only (c2,u2), got %+v", created)
	}
}

func TestAssignmentService_ByTitle_NoCandidates(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u1 := store.seedUser("u1", domain.RoleUser)

	created, err := svc.AssignByTitle(context.Background(), adminPrincipal(), "NOPE", []int64{u1})
	if err != nil {
		t.Fatalf("AssignByTitle returned error: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no assignments, got %d", len(created))
	}
}

func TestAssignmentService_ByTitle_Validation(t *testing.T) {
	svc, _, _ := newAssignmentFixture()
	ctx := context.Background()

	if _, err := svc.AssignByTitle(ctx, adminPrincipal(), "  ", []int64{1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
	if _, err := svc.AssignByTitle(ctx, adminPrincipal(), "PROMO", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty users, got %v", err)
	}
}

func TestAssignmentService_MarkUsed(t *testing.T) {
	svc, store, pub := newAssignmentFixture()
	owner := store.seedUser("owner", domain.RoleUser)
	other := store.seedUser("other", domain.RoleUser)
	c := store.seedCoupon("C1", "", time.Now())
	ctx := context.Background()

	a, err := svc.AssignPair(ctx, adminPrincipal(), domain.Pair{CouponID: c, UserID: owner})
	if err != nil {
		t.Fatalf("AssignPair returned error: %v", err)
	}

	t.Run("not found", func(t *testing.T) {
		if _, err := svc.MarkUsed(ctx, userPrincipal(owner), 9999); !errors.Is(err, domain.ErrAssignmentNotFound) {
			t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
		}
	})

	t.Run("other user", func(t *testing.T) {
		if _, err := svc.MarkUsed(ctx, userPrincipal(other), a.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("manager cannot redeem", func(t *testing.T) {
		if _, err := svc.MarkUsed(ctx, managerPrincipal(owner), a.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	var usedAt time.Time
	t.Run("owner", func(t *testing.T) {
		got, err := svc.MarkUsed(ctx, userPrincipal(owner), a.ID)
		if err != nil {
			t.Fatalf("MarkUsed returned error: %v", err)
		}
		if !got.IsUsed || got.UsedAt == nil {
			t.Fatalf("expected assignment to be used, got %+v", got)
		}
		usedAt = *got.UsedAt
	})

	t.Run("twice", func(t *testing.T) {
		if _, err := svc.MarkUsed(ctx, userPrincipal(owner), a.ID); !errors.Is(err, domain.ErrAlreadyUsed) {
			t.Fatalf("expected ErrAlreadyUsed, got %v", err)
		}
		stored, _ := stubAssignmentRepo{store}.FindByID(ctx, a.ID)
		if stored.UsedAt == nil || !stored.UsedAt.Equal(usedAt) {
			t.Fatalf("used_at changed on second redemption: %v vs %v", stored.UsedAt, usedAt)
		}
	})

	if got := len(pub.ofType(domain.EventAssignmentUsed)); got != 1 {
		t.Fatalf("expected 1 assignment.used event, got %d", got)
	}
}

func TestAssignmentService_ListMine(t *testing.T) {
	svc, store, _ := newAssignmentFixture()
	u := store.seedUser("u", domain.RoleUser)
	c1 := store.seedCoupon("C1", "", time.Now())
	c2 := store.seedCoupon("C2", "", time.Now())
	ctx := context.Background()

	created, err := svc.AssignBulkPairs(ctx, adminPrincipal(), []domain.Pair{{CouponID: c1, UserID: u}, {CouponID: c2, UserID: u}})
	if err != nil {
		t.Fatalf("AssignBulkPairs returned error: %v", err)
	}
	if _, err := svc.MarkUsed(ctx, userPrincipal(u), created[0].ID); err != nil {
		t.Fatalf("MarkUsed returned error: %v", err)
	}

	all, err := svc.ListMine(ctx, userPrincipal(u), false)
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(all))
	}
	if all[0].Coupon == nil || all[0].Coupon.Code != "C2" {
		t.Fatalf("expected newest assignment first with coupon details, got %+v", all[0].Coupon)
	}

	unused, err := svc.ListMine(ctx, userPrincipal(u), true)
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(unused) != 1 || unused[0].CouponID != c2 {
		t.Fatalf("expected only the unused (c2) assignment, got %+v", unused)
	}

	if _, err := svc.ListMine(ctx, adminPrincipal(), false); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}
}

func TestDistinctUserIDs_KeepsFirstOccurrence(t *testing.T) {
	got, err := distinctUserIDs([]int64{3, 1, 3, 2, 1})
	if err != nil {
		t.Fatalf("distinctUserIDs returned error: %v", err)
	}
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
