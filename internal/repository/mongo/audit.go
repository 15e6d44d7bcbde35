// Package mongo stores an audit trail of handled turns.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
)

// AuditSink implements domain.AuditSink
type AuditSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens the audit collection and ensures its indexes
func Connect(ctx context.Context, cfg config.MongoConfig) (*AuditSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	sink := &AuditSink{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	_, err = sink.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return sink, nil
}

func (s *AuditSink) Record(ctx context.Context, entry *domain.TurnAudit) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// Recent returns the customer's latest turns, newest first
func (s *AuditSink) Recent(ctx context.Context, customerID string, limit int64) ([]domain.TurnAudit, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "customer_id", Value: customerID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to find turns: %w", err)
	}

	var turns []domain.TurnAudit
	if err := cur.All(ctx, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode turns: %w", err)
	}
	return turns, nil
}

func (s *AuditSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *AuditSink) Close() error {
	return s.client.Disconnect(context.Background())
}
