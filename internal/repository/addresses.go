package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
)

// GetCurrentAddress returns nil, nil when the user has not saved an address.
func (r *Repository) GetCurrentAddress(ctx context.Context, userID string) (*d.Address, error) {
	query := `SELECT full_name, phone, street, city, state, country, postal_code, landmark
	          FROM addresses WHERE user_id = $1`

	var a d.Address
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&a.FullName,
		&a.Phone,
		&a.Street,
		&a.City,
		&a.State,
		&a.Country,
		&a.PostalCode,
		&a.Landmark,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return &a, nil
}

// UpsertAddress replaces the user's current address.
func (r *Repository) UpsertAddress(ctx context.Context, userID string, addr d.Address) (*d.Address, error) {
	query := `INSERT INTO addresses (user_id, full_name, phone, street, city, state, country, postal_code, landmark, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	          ON CONFLICT (user_id) DO UPDATE SET
	              full_name = EXCLUDED.full_name,
	              phone = EXCLUDED.phone,
	              street = EXCLUDED.street,
	              city = EXCLUDED.city,
	              state = EXCLUDED.state,
	              country = EXCLUDED.country,
	              postal_code = EXCLUDED.postal_code,
	              landmark = EXCLUDED.landmark,
	              updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		addr.FullName,
		addr.Phone,
		addr.Street,
		addr.City,
		addr.State,
		addr.Country,
		addr.PostalCode,
		addr.Landmark)
	if err != nil {
		return nil, fmt.Errorf("upsert address: %w", err)
	}
	return &addr, nil
}
