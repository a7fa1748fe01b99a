// Package seed loads demo catalog data and coupons from a YAML file.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/cartstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type File struct {
	Coupons  []Coupon  `yaml:"coupons"`
	Products []Product `yaml:"products"`
}

type Coupon struct {
	Code      string     `yaml:"code"`
	Kind      string     `yaml:"kind"`
	Value     string     `yaml:"value"`
	MinOrder  string     `yaml:"min_order"`
	MaxUses   *int       `yaml:"max_uses"`
	ExpiresAt *time.Time `yaml:"expires_at"`
	Active    *bool      `yaml:"active"`
}

type Product struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Price  string `yaml:"price"`
	Stock  int32  `yaml:"stock"`
	Active *bool  `yaml:"active"`
}

type CouponWriter interface {
	CreateCoupon(ctx context.Context, c d.Coupon) error
}

type ProductWriter interface {
	UpsertProduct(ctx context.Context, p cartstore.Product) error
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &f, nil
}

func (c Coupon) toDomain() (d.Coupon, error) {
	kind := d.DiscountKind(c.Kind)
	if kind != d.DiscountFlat && kind != d.DiscountPercent {
		return d.Coupon{}, fmt.Errorf("coupon %s: unknown kind %q", c.Code, c.Kind)
	}
	value, err := decimal.NewFromString(c.Value)
	if err != nil {
		return d.Coupon{}, fmt.Errorf("coupon %s: invalid value: %w", c.Code, err)
	}
	minOrder := decimal.Zero
	if c.MinOrder != "" {
		if minOrder, err = decimal.NewFromString(c.MinOrder); err != nil {
			return d.Coupon{}, fmt.Errorf("coupon %s: invalid min_order: %w", c.Code, err)
		}
	}
	return d.Coupon{
		Code:      c.Code,
		Kind:      kind,
		Value:     value,
		MinOrder:  minOrder,
		MaxUses:   c.MaxUses,
		ExpiresAt: c.ExpiresAt,
		Active:    c.Active == nil || *c.Active,
	}, nil
}

// Apply writes every coupon and product in f. Coupons that already exist
// keep their stored state; products are replaced.
func Apply(ctx context.Context, f *File, coupons CouponWriter, products ProductWriter, logger *zap.Logger) error {
	for _, c := range f.Coupons {
		coupon, err := c.toDomain()
		if err != nil {
			return err
		}
		if err := coupons.CreateCoupon(ctx, coupon); err != nil {
			return fmt.Errorf("seed coupon %s: %w", c.Code, err)
		}
	}
	for _, p := range f.Products {
		product := cartstore.Product{
			ID:     p.ID,
			Name:   p.Name,
			Price:  p.Price,
			Stock:  p.Stock,
			Active: p.Active == nil || *p.Active,
		}
		if err := products.UpsertProduct(ctx, product); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	logger.Info("seed data applied",
		zap.Int("coupons", len(f.Coupons)),
		zap.Int("products", len(f.Products)))
	return nil
}
