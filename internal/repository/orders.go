package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// CreateOrder snapshots the priced cart and the shipping address into a new
// order awaiting payment. Order numbers come from a sequence.
func (r *Repository) CreateOrder(ctx context.Context, userID string, summary d.CartSummary, addr d.Address) (*d.Order, error) {
	order := &d.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           d.OrderItemsFromSummary(summary),
		Subtotal:        summary.Subtotal,
		Discount:        summary.Discount,
		Shipping:        summary.Shipping,
		Tax:             decimal.Zero,
		Total:           summary.Total,
		Currency:        summary.Currency,
		CouponCode:      summary.CouponCode,
		ShippingAddress: addr,
		Status:          d.OrderStatusPaymentPending,
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}
	addrJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `INSERT INTO orders (id, order_number, user_id, items, subtotal, discount, shipping, tax, total,
	                              currency, coupon_code, shipping_address, status, created_at, updated_at)
	          VALUES ($1, nextval('order_number_seq')::text, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, NOW(), NOW())
	          RETURNING order_number, created_at`

	err = r.db.QueryRowContext(ctx, query,
		order.ID,
		order.UserID,
		itemsJSON,
		order.Subtotal,
		order.Discount,
		order.Shipping,
		order.Tax,
		order.Total,
		order.Currency,
		order.CouponCode,
		addrJSON,
		order.Status,
	).Scan(&order.OrderNumber, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*d.Order, error) {
	query := `SELECT id, order_number, user_id, items, subtotal, discount, shipping, tax, total,
	                 currency, COALESCE(coupon_code, ''), shipping_address, status, created_at
	          FROM orders WHERE id = $1`

	var order d.Order
	var itemsJSON, addrJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&itemsJSON,
		&order.Subtotal,
		&order.Discount,
		&order.Shipping,
		&order.Tax,
		&order.Total,
		&order.Currency,
		&order.CouponCode,
		&addrJSON,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(addrJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &order, nil
}

// AttachPayment records the gateway session as the order's payment transaction.
func (r *Repository) AttachPayment(ctx context.Context, orderID string, session *d.PaymentSession) error {
	query := `INSERT INTO payment_transactions (transaction_id, order_id, amount, currency, payment_method, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, 'gateway', 'created', NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		session.SessionID,
		orderID,
		session.Amount,
		session.Currency)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrDuplicateSession
			case "23503":
				return ErrOrderNotFound
			}
		}
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

// DeleteOrder removes an order that has not been paid. It reports false when
// there was nothing to remove, including orders whose payment has progressed.
func (r *Repository) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	query := `DELETE FROM orders WHERE id = $1 AND status = ANY($2)`

	res, err := r.db.ExecContext(ctx, query, orderID,
		pq.Array([]string{string(d.OrderStatusCreated), string(d.OrderStatusPaymentPending)}))
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete order rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) GetOrderStatus(ctx context.Context, orderID string) (d.OrderStatus, error) {
	var status d.OrderStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query order status: %w", err)
	}
	return status, nil
}
