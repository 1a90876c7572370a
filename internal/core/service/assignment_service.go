package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/pkg/metrics"
)

// maxBulkPairs bounds a single bulk request.
const maxBulkPairs = 1000

// AssignmentService is the assignment engine: it reads the current ledger,
// computes new (coupon, user) pairs and writes them in one transaction.
type AssignmentService struct {
	ledger  ports.AssignmentRepository
	coupons ports.CouponRepository
	events  ports.EventPublisher
	log     zerolog.Logger
	now     func() time.Time
}

func NewAssignmentService(
	ledger ports.AssignmentRepository,
	coupons ports.CouponRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		ledger:  ledger,
		coupons: coupons,
		events:  publisherOrNop(events),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AssignPair inserts one assignment. The store rejects a repeated pair with
// domain.ErrAssignmentExists; coupon and user existence is left to its
// foreign keys.
func (s *AssignmentService) AssignPair(ctx context.Context, caller domain.Principal, pair domain.Pair) (*domain.Assignment, error) {
	if err := domain.Authorize(caller, domain.OpAssign); err != nil {
		return nil, err
	}
	if err := validatePair(pair); err != nil {
		return nil, err
	}

	a, err := s.ledger.Create(ctx, pair, s.now())
	if err != nil {
		return nil, fmt.Errorf("assign pair: %w", err)
	}

	metrics.AssignmentsCreatedTotal.WithLabelValues("pair").Inc()
	s.publishCreated(caller, "pair", a)
	s.log.Info().Int64("coupon_id", pair.CouponID).Int64("user_id", pair.UserID).Msg("coupon assigned")
	return a, nil
}

// AssignBulkPairs stages every pair not already in the ledger and not
// already staged earlier in the same call, then persists the staged set
// atomically. Skips are silent.
func (s *AssignmentService) AssignBulkPairs(ctx context.Context, caller domain.Principal, pairs []domain.Pair) ([]*domain.Assignment, error) {
	if err := domain.Authorize(caller, domain.OpAssign); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, domain.NewValidationError("pairs must not be empty")
	}
	if len(pairs) > maxBulkPairs {
		return nil, domain.NewValidationError(fmt.Sprintf("at most %d pairs per request", maxBulkPairs))
	}
	for i, p := range pairs {
		if err := validatePair(p); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("pairs[%d]: %s", i, err.Error()))
		}
	}

	existing, err := s.ledger.ExistingPairs(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("assign bulk: %w", err)
	}

	staged := make([]domain.Pair, 0, len(pairs))
	seen := make(map[domain.Pair]struct{}, len(pairs))
	var ledgerDup, batchDup int
	for _, p := range pairs {
		if _, ok := existing[p]; ok {
			ledgerDup++
			continue
		}
		if _, ok := seen[p]; ok {
			batchDup++
			continue
		}
		seen[p] = struct{}{}
		staged = append(staged, p)
	}

	metrics.AssignmentsSkippedTotal.WithLabelValues("bulk", "ledger_duplicate").Add(float64(ledgerDup))
	metrics.AssignmentsSkippedTotal.WithLabelValues("bulk", "batch_duplicate").Add(float64(batchDup))

	if len(staged) == 0 {
		return []*domain.Assignment{}, nil
	}

	created, err := s.ledger.CreateBatch(ctx, staged, s.now())
	if err != nil {
		return nil, fmt.Errorf("assign bulk: %w", err)
	}

	s.recordBatch(caller, "bulk", len(staged), created)
	s.log.Info().
		Int("requested", len(pairs)).
		Int("created", len(created)).
		Int("skipped", len(pairs)-len(created)).
		Msg("bulk assignment completed")
	return created, nil
}

// AssignByTitle pairs the unassigned coupons of a title, in creation order,
// with userIDs in caller order. Surplus coupons or users are left untouched.
func (s *AssignmentService) AssignByTitle(ctx context.Context, caller domain.Principal, title string, userIDs []int64) ([]*domain.Assignment, error) {
	if err := domain.Authorize(caller, domain.OpAssign); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("assignment_title is required")
	}
	users, err := distinctUserIDs(userIDs)
	if err != nil {
		return nil, err
	}

	candidates, err := s.coupons.ListUnassigned(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("assign by title: %w", err)
	}
	slices.SortStableFunc(candidates, func(a, b *domain.Coupon) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	n := min(len(candidates), len(users))
	if surplus := len(candidates) + len(users) - 2*n; surplus > 0 {
		metrics.AssignmentsSkippedTotal.WithLabelValues("title", "surplus").Add(float64(surplus))
		s.log.Debug().
			Str("title", title).
			Int("coupons", len(candidates)).
			Int("users", len(users)).
			Msg("title assignment has unmatched coupons or users")
	}
	if n == 0 {
		return []*domain.Assignment{}, nil
	}

	pairs := make([]domain.Pair, n)
	for i := range n {
		pairs[i] = domain.Pair{CouponID: candidates[i].ID, UserID: users[i]}
	}

	created, err := s.ledger.CreateBatch(ctx, pairs, s.now())
	if err != nil {
		return nil, fmt.Errorf("assign by title: %w", err)
	}

	s.recordBatch(caller, "title", len(pairs), created)
	s.log.Info().Str("title", title).Int("created", len(created)).Msg("title assignment completed")
	return created, nil
}

// MarkUsed redeems an assignment owned by the caller. Redeeming twice is
// rejected with domain.ErrAlreadyUsed and leaves used_at untouched.
func (s *AssignmentService) MarkUsed(ctx context.Context, caller domain.Principal, assignmentID int64) (*domain.Assignment, error) {
	if err := domain.Authorize(caller, domain.OpAssignmentMarkUsed); err != nil {
		return nil, err
	}
	if assignmentID <= 0 {
		return nil, domain.NewValidationError("assignment id must be positive")
	}

	a, err := s.ledger.MarkUsed(ctx, assignmentID, caller.UserID, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrAssignmentNotFound) {
			return nil, fmt.Errorf("mark used: %w", err)
		}
		return nil, s.classifyUnredeemable(ctx, caller, assignmentID)
	}

	metrics.RedemptionsTotal.Inc()
	ev := newEvent(domain.EventAssignmentUsed, caller)
	ev.AssignmentID = a.ID
	ev.CouponID = a.CouponID
	ev.UserID = a.UserID
	s.events.Publish(ev)

	s.log.Info().Int64("assignment_id", a.ID).Int64("user_id", a.UserID).Msg("coupon redeemed")
	return a, nil
}

// classifyUnredeemable explains why the conditional update matched no row.
func (s *AssignmentService) classifyUnredeemable(ctx context.Context, caller domain.Principal, id int64) error {
	a, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	if a.UserID != caller.UserID {
		return domain.ErrForbidden
	}
	if a.IsUsed {
		return domain.ErrAlreadyUsed
	}
	// Row exists, belongs to caller and is unused: the update lost a race.
	return fmt.Errorf("mark used: assignment %d changed concurrently", id)
}

func (s *AssignmentService) ListMine(ctx context.Context, caller domain.Principal, unusedOnly bool) ([]*domain.Assignment, error) {
	if err := domain.Authorize(caller, domain.OpAssignmentListMine); err != nil {
		return nil, err
	}
	items, err := s.ledger.ListByUser(ctx, caller.UserID, unusedOnly)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

func (s *AssignmentService) recordBatch(caller domain.Principal, mode string, staged int, created []*domain.Assignment) {
	metrics.AssignmentsCreatedTotal.WithLabelValues(mode).Add(float64(len(created)))
	if lost := staged - len(created); lost > 0 {
		metrics.AssignmentsSkippedTotal.WithLabelValues(mode, "concurrent").Add(float64(lost))
	}
	for _, a := range created {
		s.publishCreated(caller, mode, a)
	}
}

func (s *AssignmentService) publishCreated(caller domain.Principal, mode string, a *domain.Assignment) {
	ev := newEvent(domain.EventAssignmentCreated, caller)
	ev.AssignmentID = a.ID
	ev.CouponID = a.CouponID
	ev.UserID = a.UserID
	ev.Details = map[string]string{"mode": mode}
	s.events.Publish(ev)
}

func validatePair(p domain.Pair) error {
	if p.CouponID <= 0 || p.UserID <= 0 {
		return domain.NewValidationError("coupon_id and user_id must be positive")
	}
	return nil
}

// distinctUserIDs keeps the first occurrence of each id, in order.
func distinctUserIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("user_ids must not be empty")
	}
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if id <= 0 {
			return nil, domain.NewValidationError("user_ids[" + strconv.Itoa(i) + "] must be positive")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
