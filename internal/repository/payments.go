package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	d "github.com/fjod/go_cart/checkout/domain"
)

// QueryStatus reports the payment status of the transaction known by
// correlationID. An unknown transaction is reported as not found rather than
// as an error, so the poller can treat it as terminal.
func (r *Repository) QueryStatus(ctx context.Context, correlationID string) (*d.StatusReport, error) {
	query := `SELECT t.status, o.id, o.order_number
	          FROM payment_transactions t JOIN orders o ON o.id = t.order_id
	          WHERE t.transaction_id = $1`

	var status string
	report := &d.StatusReport{}
	err := r.db.QueryRowContext(ctx, query, correlationID).Scan(&status, &report.OrderID, &report.OrderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		report.Status = d.PaymentStatusNotFound
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query payment status: %w", err)
	}

	switch status {
	case "paid":
		report.Status = d.PaymentStatusPaid
	case "failed":
		report.Status = d.PaymentStatusFailed
	default:
		report.Status = d.PaymentStatusPending
	}
	return report, nil
}

// MarkPaymentSucceeded records a captured payment on the transaction and its
// order and returns the id of the user who placed the order.
func (r *Repository) MarkPaymentSucceeded(ctx context.Context, transactionID, paymentID string) (string, error) {
	var userID string
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var orderID string
		err := tx.QueryRowContext(ctx,
			`UPDATE payment_transactions SET status = 'paid', payment_id = $2, updated_at = NOW()
			 WHERE transaction_id = $1 RETURNING order_id`,
			transactionID, paymentID).Scan(&orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("mark transaction paid: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING user_id`,
			orderID, d.OrderStatusPaymentPaid).Scan(&userID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		return nil
	})
	return userID, err
}

// MarkPaymentFailed records a failed payment. A transaction that was already
// paid is left untouched.
func (r *Repository) MarkPaymentFailed(ctx context.Context, transactionID, reason string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var orderID string
		err := tx.QueryRowContext(ctx,
			`UPDATE payment_transactions SET status = 'failed', failure_reason = NULLIF($2, ''), updated_at = NOW()
			 WHERE transaction_id = $1 AND status <> 'paid' RETURNING order_id`,
			transactionID, reason).Scan(&orderID)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if e2 := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM payment_transactions WHERE transaction_id = $1)`,
				transactionID).Scan(&exists); e2 != nil {
				return fmt.Errorf("check transaction: %w", e2)
			}
			if !exists {
				return ErrTransactionNotFound
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark transaction failed: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
			orderID, d.OrderStatusPaymentFailed, d.OrderStatusPaymentPending)
		if err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}
		return nil
	})
}
