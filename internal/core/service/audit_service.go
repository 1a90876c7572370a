package service

import (
	"context"
	"fmt"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

type auditService struct {
	repo ports.AuditRepository
}

// NewAuditService returns an AuditService reading from repo.
func NewAuditService(repo ports.AuditRepository) ports.AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, caller domain.Principal, filter ports.AuditFilter) ([]domain.CouponEvent, error) {
	if err := domain.Authorize(caller, domain.OpAuditRead); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
