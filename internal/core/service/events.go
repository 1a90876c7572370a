package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// newEvent stamps an event with a fresh ID, the acting principal and the current time.
func newEvent(t domain.EventType, actor domain.Principal) domain.CouponEvent {
	return domain.CouponEvent{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actor.UserID,
		OccurredAt: time.Now().UTC(),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.CouponEvent) {}

func publisherOrNop(p ports.EventPublisher) ports.EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
