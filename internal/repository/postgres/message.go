package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/order-intake/internal/domain"
)

// MessageLog implements domain.MessageLog
type MessageLog struct {
	pool *pgxpool.Pool
}

// NewMessageLog creates a new message log
func NewMessageLog(pool *pgxpool.Pool) *MessageLog {
	return &MessageLog{pool: pool}
}

func (r *MessageLog) Append(ctx context.Context, msg *domain.HistoryMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	query := `
		INSERT INTO conversation_messages (id, customer_id, text, is_from_customer, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.CustomerID, msg.Text, msg.IsFromCustomer, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListByCustomer returns the latest limit messages, oldest first
func (r *MessageLog) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.HistoryMessage, error) {
	query := `
		SELECT id, customer_id, text, is_from_customer, created_at
		FROM conversation_messages
		WHERE customer_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.HistoryMessage
	for rows.Next() {
		var m domain.HistoryMessage
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Text, &m.IsFromCustomer, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}
