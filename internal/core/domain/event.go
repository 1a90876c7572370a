package domain

import "time"

// EventType names a state change worth auditing.
type EventType string

const (
	EventCouponCreated     EventType = "coupon.created"
	EventCouponUpdated     EventType = "coupon.updated"
	EventCouponDeleted     EventType = "coupon.deleted"
	EventCouponsUploaded   EventType = "coupons.uploaded"
	EventAssignmentCreated EventType = "assignment.created"
	EventAssignmentUsed    EventType = "assignment.used"
	EventUserDeleted       EventType = "user.deleted"
)

// CouponEvent is emitted after a successful write and fanned out to the
// audit trail and the event stream.
type CouponEvent struct {
	ID           string
	Type         EventType
	ActorID      int64
	CouponID     int64
	UserID       int64
	AssignmentID int64
	OccurredAt   time.Time
	Details      map[string]string
}
