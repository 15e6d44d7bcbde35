package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/security"
)

// RegistrationStore implements domain.RegistrationStore, phones sealed at rest
type RegistrationStore struct {
	pool  *pgxpool.Pool
	codec security.PhoneCodec
}

// NewRegistrationStore creates a new registration store
func NewRegistrationStore(pool *pgxpool.Pool, codec security.PhoneCodec) *RegistrationStore {
	return &RegistrationStore{pool: pool, codec: codec}
}

func (r *RegistrationStore) Get(ctx context.Context, customerID string) (*domain.Registration, error) {
	query := `
		SELECT customer_id, phone_sealed, registered_at, updated_at
		FROM customer_registrations
		WHERE customer_id = $1
	`
	var reg domain.Registration
	var sealed string
	err := r.pool.QueryRow(ctx, query, customerID).Scan(&reg.CustomerID, &sealed, &reg.RegisteredAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	reg.Phone, err = r.codec.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to open phone: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationStore) Save(ctx context.Context, reg *domain.Registration) error {
	sealed, err := r.codec.Seal(reg.Phone)
	if err != nil {
		return fmt.Errorf("failed to seal phone: %w", err)
	}

	query := `
		INSERT INTO customer_registrations (customer_id, phone_sealed, registered_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE
		SET phone_sealed = EXCLUDED.phone_sealed,
			registered_at = EXCLUDED.registered_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, reg.CustomerID, sealed, reg.RegisteredAt, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	return nil
}
