package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Rrens/order-intake/internal/domain"
)

// MessageLog implements domain.MessageLog
type MessageLog struct {
	db *sql.DB
}

func NewMessageLog(db *sql.DB) *MessageLog {
	return &MessageLog{db: db}
}

func (l *MessageLog) Append(ctx context.Context, msg *domain.HistoryMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, customer_id, text, is_from_customer, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.CustomerID, msg.Text, msg.IsFromCustomer, formatTime(msg.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (l *MessageLog) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.HistoryMessage, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, customer_id, text, is_from_customer, created_at
		FROM conversation_messages
		WHERE customer_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []domain.HistoryMessage
	for rows.Next() {
		var m domain.HistoryMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Text, &m.IsFromCustomer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if m.Timestamp, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse message time: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}
