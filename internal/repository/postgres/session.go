package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/order-intake/internal/domain"
)

// SessionStore implements domain.SessionStore with a version column
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new session store
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (r *SessionStore) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	query := `
		SELECT payload, version
		FROM conversation_sessions
		WHERE customer_id = $1
	`
	var payload []byte
	var version int64
	err := r.pool.QueryRow(ctx, query, customerID).Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s domain.ConversationSession
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s.CustomerID = customerID
	s.Version = version
	return &s, nil
}

func (r *SessionStore) Save(ctx context.Context, s *domain.ConversationSession) error {
	s.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		UPDATE conversation_sessions
		SET dialog_state = $2, payload = $3, version = version + 1, updated_at = $5
		WHERE customer_id = $1 AND version = $4
	`
	args := []any{s.CustomerID, string(s.State), payload, s.Version, s.UpdatedAt}
	if s.Version == 0 {
		query = `
			INSERT INTO conversation_sessions (customer_id, dialog_state, payload, version, updated_at)
			VALUES ($1, $2, $3, 1, $4)
			ON CONFLICT (customer_id) DO NOTHING
		`
		args = []any{s.CustomerID, string(s.State), payload, s.UpdatedAt}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	s.Version++
	return nil
}
