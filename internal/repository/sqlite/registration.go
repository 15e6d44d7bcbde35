package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/security"
)

// RegistrationStore implements domain.RegistrationStore
type RegistrationStore struct {
	db    *sql.DB
	codec security.PhoneCodec
}

func NewRegistrationStore(db *sql.DB, codec security.PhoneCodec) *RegistrationStore {
	return &RegistrationStore{db: db, codec: codec}
}

func (r *RegistrationStore) Get(ctx context.Context, customerID string) (*domain.Registration, error) {
	var sealed, registeredAt, updatedAt string
	reg := domain.Registration{CustomerID: customerID}
	err := r.db.QueryRowContext(ctx, `
		SELECT phone_sealed, registered_at, updated_at
		FROM customer_registrations WHERE customer_id = ?`, customerID,
	).Scan(&sealed, &registeredAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	if reg.Phone, err = r.codec.Open(sealed); err != nil {
		return nil, fmt.Errorf("failed to open phone: %w", err)
	}
	if reg.RegisteredAt, err = parseTime(registeredAt); err != nil {
		return nil, fmt.Errorf("failed to parse registered_at: %w", err)
	}
	if reg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationStore) Save(ctx context.Context, reg *domain.Registration) error {
	sealed, err := r.codec.Seal(reg.Phone)
	if err != nil {
		return fmt.Errorf("failed to seal phone: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO customer_registrations (customer_id, phone_sealed, registered_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE
		SET phone_sealed = excluded.phone_sealed,
			registered_at = excluded.registered_at,
			updated_at = excluded.updated_at`,
		reg.CustomerID, sealed, formatTime(reg.RegisteredAt), formatTime(reg.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}
