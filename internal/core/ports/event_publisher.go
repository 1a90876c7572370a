package ports

import (
	"context"
	"time"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// EventPublisher accepts events for asynchronous delivery. Publish must not
// block the calling request on downstream sinks.
type EventPublisher interface {
	Publish(event domain.CouponEvent)
}

// EventSink is a downstream destination of coupon events.
type EventSink interface {
	Name() string
	Deliver(ctx context.Context, event domain.CouponEvent) error
}

// AuditFilter narrows an audit query. Zero values mean "any".
type AuditFilter struct {
	Type     domain.EventType
	CouponID int64
	UserID   int64
	Since    time.Time
	Limit    int
}

// AuditRepository persists and queries the audit trail.
type AuditRepository interface {
	EventSink
	List(ctx context.Context, filter AuditFilter) ([]domain.CouponEvent, error)
}
