package cache

import (
	"context"
	"errors"

	d "github.com/fjod/go_cart/checkout/domain"
)

// CartCache holds a user's cart lines. Stock is never cached.
type CartCache interface {
	Get(ctx context.Context, userID string) ([]d.CartItem, error)
	Set(ctx context.Context, userID string, items []d.CartItem) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
