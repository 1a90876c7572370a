package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/pkg/metrics"
)

// maxUploadRows bounds a single batch upload.
const maxUploadRows = 5000

type CouponService struct {
	repo   ports.CouponRepository
	events ports.EventPublisher
	logger zerolog.Logger
}

func NewCouponService(repo ports.CouponRepository, events ports.EventPublisher, logger zerolog.Logger) *CouponService {
	return &CouponService{repo: repo, events: publisherOrNop(events), logger: logger}
}

// Create validates and stores a single coupon owned by the caller.
func (s *CouponService) Create(ctx context.Context, caller domain.Principal, input ports.CreateCouponInput) (*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponCreate); err != nil {
		return nil, err
	}

	c := newCoupon(input, caller.UserID)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if !errors.Is(err, domain.ErrCouponCodeExists) {
			s.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	metrics.CouponsCreatedTotal.WithLabelValues("single").Inc()
	ev := newEvent(domain.EventCouponCreated, caller)
	ev.CouponID = c.ID
	ev.Details = map[string]string{"code": c.Code}
	s.events.Publish(ev)

	s.logger.Info().Int64("coupon_id", c.ID).Str("code", c.Code).Msg("coupon created")
	return c, nil
}

// Upload validates every row before writing anything. A single invalid row
// rejects the whole upload with one error listing each offending row.
func (s *CouponService) Upload(ctx context.Context, caller domain.Principal, inputs []ports.CreateCouponInput) ([]*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponUpload); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, domain.NewValidationError("upload contains no coupons")
	}
	if len(inputs) > maxUploadRows {
		return nil, domain.NewValidationError(fmt.Sprintf("at most %d coupons per upload", maxUploadRows))
	}

	coupons := make([]*domain.Coupon, 0, len(inputs))
	codes := make([]string, 0, len(inputs))
	firstRow := make(map[string]int, len(inputs))
	var problems []string

	for i, in := range inputs {
		row := i + 1
		c := newCoupon(in, caller.UserID)
		if err := c.Validate(); err != nil {
			problems = append(problems, rowProblem(row, err.Error()))
			continue
		}
		if prev, dup := firstRow[c.Code]; dup {
			problems = append(problems, rowProblem(row, "code "+c.Code+" repeats row "+strconv.Itoa(prev)))
			continue
		}
		firstRow[c.Code] = row
		codes = append(codes, c.Code)
		coupons = append(coupons, c)
	}

	if len(codes) > 0 {
		existing, err := s.repo.ExistingCodes(ctx, codes)
		if err != nil {
			return nil, fmt.Errorf("upload coupons: %w", err)
		}
		for _, c := range coupons {
			if _, taken := existing[c.Code]; taken {
				problems = append(problems, rowProblem(firstRow[c.Code], "coupon code "+c.Code+" already exists"))
			}
		}
	}

	if len(problems) > 0 {
		return nil, domain.NewValidationError("some coupons could not be created: " + strings.Join(problems, "; "))
	}

	if err := s.repo.CreateMany(ctx, coupons); err != nil {
		return nil, fmt.Errorf("upload coupons: %w", err)
	}

	metrics.CouponsCreatedTotal.WithLabelValues("upload").Add(float64(len(coupons)))
	ev := newEvent(domain.EventCouponsUploaded, caller)
	ev.Details = map[string]string{"count": strconv.Itoa(len(coupons))}
	s.events.Publish(ev)

	s.logger.Info().Int("count", len(coupons)).Int64("created_by", caller.UserID).Msg("coupons uploaded")
	return coupons, nil
}

func (s *CouponService) Get(ctx context.Context, caller domain.Principal, id int64) (*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *CouponService) List(ctx context.Context, caller domain.Principal) ([]*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponList); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// ListCreated returns the coupons created by the calling manager.
func (s *CouponService) ListCreated(ctx context.Context, caller domain.Principal) ([]*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponListCreated); err != nil {
		return nil, err
	}
	return s.repo.ListByCreator(ctx, caller.UserID)
}

func (s *CouponService) ListUnassigned(ctx context.Context, caller domain.Principal, title string) ([]*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponListUnassigned); err != nil {
		return nil, err
	}
	return s.repo.ListUnassigned(ctx, strings.TrimSpace(title))
}

func (s *CouponService) ListTitles(ctx context.Context, caller domain.Principal) ([]domain.TitleSummary, error) {
	if err := domain.Authorize(caller, domain.OpCouponListTitles); err != nil {
		return nil, err
	}
	return s.repo.ListTitles(ctx)
}

// Update applies a partial update: fields absent from the patch keep their
// stored value.
func (s *CouponService) Update(ctx context.Context, caller domain.Principal, id int64, patch domain.CouponPatch) (*domain.Coupon, error) {
	if err := domain.Authorize(caller, domain.OpCouponUpdate); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.NewValidationError("no fields to update")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	ev := newEvent(domain.EventCouponUpdated, caller)
	ev.CouponID = id
	s.events.Publish(ev)
	return &updated, nil
}

// Delete removes a coupon together with its assignments.
func (s *CouponService) Delete(ctx context.Context, caller domain.Principal, id int64) error {
	if err := domain.Authorize(caller, domain.OpCouponDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	ev := newEvent(domain.EventCouponDeleted, caller)
	ev.CouponID = id
	s.events.Publish(ev)

	s.logger.Info().Int64("coupon_id", id).Msg("coupon deleted")
	return nil
}

func newCoupon(in ports.CreateCouponInput, creatorID int64) *domain.Coupon {
	var exp *time.Time
	if in.ExpirationDate != nil {
		t := in.ExpirationDate.UTC()
		exp = &t
	}
	return &domain.Coupon{
		Code:            strings.TrimSpace(in.Code),
		Description:     in.Description,
		DiscountAmount:  in.DiscountAmount,
		DiscountType:    domain.ParseDiscountType(in.DiscountType),
		ExpirationDate:  exp,
		IsActive:        true,
		CreatedByID:     creatorID,
		Brand:           strings.TrimSpace(in.Brand),
		AssignmentTitle: strings.TrimSpace(in.AssignmentTitle),
	}
}

func rowProblem(row int, msg string) string {
	return "row " + strconv.Itoa(row) + ": " + msg
}
