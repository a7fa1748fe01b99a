package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFlat    DiscountKind = "flat"
)

// Coupon as stored by the coupon service.
type Coupon struct {
	Code      string
	Kind      DiscountKind
	Value     decimal.Decimal
	MinOrder  decimal.Decimal
	MaxUses   *int // nil means unlimited
	UsedCount int
	ExpiresAt *time.Time // nil means the coupon never expires
	Active    bool
}

// IsExpired reports whether the coupon expiry is at or before now.
func (c Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsExhausted reports whether the usage cap has been reached.
func (c Coupon) IsExhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// AppliedCoupon is the result of a successful coupon validation.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Kind     DiscountKind    `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	Discount decimal.Decimal `json:"discount"`
}
