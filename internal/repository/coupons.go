package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/coupon"
)

// Validate loads a coupon by its normalized code. Whether it applies is
// decided by the coupon engine.
func (r *Repository) Validate(ctx context.Context, code string) (*d.Coupon, error) {
	query := `SELECT code, discount_type, value, min_order, max_uses, used_count, expires_at, is_active
	          FROM coupons WHERE code = $1`

	var c d.Coupon
	var maxUses sql.NullInt64
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.Kind,
		&c.Value,
		&c.MinOrder,
		&maxUses,
		&c.UsedCount,
		&expiresAt,
		&c.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coupon.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon: %w", err)
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		c.MaxUses = &n
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

// RecordUsage counts one confirmed use of code.
func (r *Repository) RecordUsage(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("record coupon usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// CreateCoupon stores a coupon. An existing code is left unchanged.
func (r *Repository) CreateCoupon(ctx context.Context, c d.Coupon) error {
	query := `INSERT INTO coupons (code, discount_type, value, min_order, max_uses, used_count, expires_at, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (code) DO NOTHING`

	var maxUses sql.NullInt64
	if c.MaxUses != nil {
		maxUses = sql.NullInt64{Int64: int64(*c.MaxUses), Valid: true}
	}
	var expiresAt sql.NullTime
	if c.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *c.ExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		coupon.NormalizeCode(c.Code),
		c.Kind,
		c.Value,
		c.MinOrder,
		maxUses,
		c.UsedCount,
		expiresAt,
		c.Active)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}
