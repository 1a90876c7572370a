package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

const collectionCouponEvents = "coupon_events"

// eventDocument is the stored shape of a coupon event. The event ID doubles
// as _id so a redelivered event is stored once.
type eventDocument struct {
	ID           string            `bson:"_id"`
	Type         string            `bson:"type"`
	ActorID      int64             `bson:"actor_id"`
	CouponID     int64             `bson:"coupon_id,omitempty"`
	UserID       int64             `bson:"user_id,omitempty"`
	AssignmentID int64             `bson:"assignment_id,omitempty"`
	OccurredAt   time.Time         `bson:"occurred_at"`
	Details      map[string]string `bson:"details,omitempty"`
	RecordedAt   time.Time         `bson:"recorded_at"`
}

// AuditRepository implements ports.AuditRepository on the coupon_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionCouponEvents)}
}

// Name identifies the repository as an event sink.
func (r *AuditRepository) Name() string { return "audit" }

// Deliver persists an event to the audit collection.
func (r *AuditRepository) Deliver(ctx context.Context, event domain.CouponEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := eventDocument{
		ID:           event.ID,
		Type:         string(event.Type),
		ActorID:      event.ActorID,
		CouponID:     event.CouponID,
		UserID:       event.UserID,
		AssignmentID: event.AssignmentID,
		OccurredAt:   event.OccurredAt.UTC(),
		Details:      event.Details,
		RecordedAt:   time.Now().UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns matching events, newest first.
func (r *AuditRepository) List(ctx context.Context, f ports.AuditFilter) ([]domain.CouponEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.CouponID > 0 {
		filter["coupon_id"] = f.CouponID
	}
	if f.UserID > 0 {
		filter["user_id"] = f.UserID
	}
	if !f.Since.IsZero() {
		filter["occurred_at"] = bson.M{"$gte": f.Since.UTC()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.CouponEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.CouponEvent{
			ID:           d.ID,
			Type:         domain.EventType(d.Type),
			ActorID:      d.ActorID,
			CouponID:     d.CouponID,
			UserID:       d.UserID,
			AssignmentID: d.AssignmentID,
			OccurredAt:   d.OccurredAt,
			Details:      d.Details,
		})
	}
	return events, nil
}

// EnsureIndexes creates the query indexes on the coupon_events collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "coupon_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
