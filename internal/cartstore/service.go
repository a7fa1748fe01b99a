package cartstore

import (
	"context"
	"errors"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the persistent side of the cart service.
type Store interface {
	CartLines(ctx context.Context, userID string) ([]d.CartItem, error)
	Stock(ctx context.Context, productIDs []string) (map[string]int32, error)
	AddItem(ctx context.Context, userID, productID string, quantity int32) error
	DeleteCart(ctx context.Context, userID string) error
}

// Service serves carts with live stock. Cart lines are cached; stock is
// always read from the store.
type Service struct {
	store  Store
	cache  cache.CartCache
	sfg    singleflight.Group // collapses concurrent loads of the same cart
	logger *zap.Logger
}

func NewService(store Store, cache cache.CartCache, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) ([]d.CartItem, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		lines, err := s.cache.Get(ctx, userID)
		if err == nil {
			return lines, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		lines, err = s.store.CartLines(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func(lines []d.CartItem) {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, userID, lines); err != nil {
				s.logger.Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
			}
		}(lines)

		return lines, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]d.CartItem)
	if len(shared) == 0 {
		return nil, nil
	}
	items := make([]d.CartItem, len(shared))
	copy(items, shared)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	stock, err := s.store.Stock(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Stock = stock[items[i].ProductID]
	}
	return items, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int32) error {
	if err := s.store.AddItem(ctx, userID, productID, quantity); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.DeleteCart(ctx, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
