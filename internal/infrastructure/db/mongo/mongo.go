package mongo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultAppName        = "coupon-service"
)

// Config describes the database holding the audit trail.
type Config struct {
	URI      string
	Database string
	// ConnectTimeout bounds dialing, the ping and the index bootstrap.
	ConnectTimeout time.Duration
	AppName        string
}

// Store owns the MongoDB client and the audit repository built on it.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	Audit  *AuditRepository
}

// Open connects to MongoDB and returns a Store whose coupon_events indexes
// are in place. The client is disconnected again if any step fails.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cmp.Or(cfg.ConnectTimeout, defaultConnectTimeout))
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cmp.Or(cfg.AppName, defaultAppName))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect audit store: %w", err)
	}

	store, err := newStore(ctx, client, cfg.Database)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func newStore(ctx context.Context, client *mongo.Client, database string) (*Store, error) {
	if database == "" {
		return nil, errors.New("audit store: database name is empty")
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	s.Audit = NewAuditRepository(s.db)
	if err := s.Audit.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("audit store indexes: %w", err)
	}
	return s, nil
}

// Ping runs the ping command against the audit database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("ping audit store: %w", err)
	}
	return nil
}

// Close disconnects the client, waiting at most timeout for pending operations.
func (s *Store) Close(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
