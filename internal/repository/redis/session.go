package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/order-intake/internal/domain"
)

const sessionPrefix = "intake:session:"

// SessionStore keeps sessions as JSON values guarded by WATCH/MULTI.
// Keys expire after the configured TTL; an expired session is rebuilt from history.
type SessionStore struct {
	client *Client
}

func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	data, err := s.client.rdb.Get(ctx, sessionPrefix+customerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.ConversationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.ConversationSession) error {
	key := sessionPrefix + session.CustomerID
	expected := session.Version

	next := *session
	next.Version = expected + 1
	next.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return domain.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.client.sessionTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		return domain.ErrVersionConflict
	case errors.Is(err, domain.ErrVersionConflict):
		return err
	default:
		return fmt.Errorf("failed to save session: %w", err)
	}

	session.Version = next.Version
	session.UpdatedAt = next.UpdatedAt
	return nil
}

// currentVersion returns 0 when no session is stored
func currentVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read session version: %w", err)
	}
	var stored struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return stored.Version, nil
}
