package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusPaymentPaid    OrderStatus = "payment_paid"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsPrePayment reports whether an order in this status can still be
// discarded without touching captured funds.
func (s OrderStatus) IsPrePayment() bool {
	return s == OrderStatusCreated || s == OrderStatusPaymentPending
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a snapshot of a cart line, immune to later catalog changes.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int32           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	CouponCode      string
	ShippingAddress Address
	Status          OrderStatus
	CreatedAt       time.Time
}

// OrderItemsFromSummary snapshots the summary lines into order items.
func OrderItemsFromSummary(s CartSummary) []OrderItem {
	items := make([]OrderItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = OrderItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		}
	}
	return items
}
