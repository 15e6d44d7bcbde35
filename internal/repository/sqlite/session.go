package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/order-intake/internal/domain"
)

// SessionStore implements domain.SessionStore
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	var payload string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, version FROM conversation_sessions WHERE customer_id = ?`, customerID,
	).Scan(&payload, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.ConversationSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	session.CustomerID = customerID
	session.Version = version
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.ConversationSession) error {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var res sql.Result
	if session.Version == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO conversation_sessions (customer_id, dialog_state, payload, version, updated_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT (customer_id) DO NOTHING`,
			session.CustomerID, string(session.State), string(payload), formatTime(session.UpdatedAt))
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE conversation_sessions
			SET dialog_state = ?, payload = ?, version = version + 1, updated_at = ?
			WHERE customer_id = ? AND version = ?`,
			string(session.State), string(payload), formatTime(session.UpdatedAt), session.CustomerID, session.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrVersionConflict
	}
	session.Version++
	return nil
}
