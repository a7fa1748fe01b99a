package repository

import (
	"context"
	"testing"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSummary() d.CartSummary {
	return d.CartSummary{
		Items: []d.CartItem{
			{ProductID: "p1", ProductName: "Kasavu Saree", UnitPrice: dec("1200"), Quantity: 2, Stock: 5},
		},
		Subtotal:   dec("2400"),
		Discount:   dec("50"),
		Shipping:   decimal.Zero,
		Total:      dec("2350"),
		CouponCode: "FLAT50",
		Currency:   "INR",
	}
}

func testAddress() d.Address {
	return d.Address{
		FullName:   "Asha Menon",
		Phone:      "9876543210",
		Street:     "12 Temple Road",
		City:       "Kochi",
		State:      "Kerala",
		Country:    "India",
		PostalCode: "682001",
		Landmark:   "Near the ferry",
	}
}

func TestRepository(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("coupon not found", func(t *testing.T) {
		_, err := repo.Validate(context.Background(), "NOPE")
		assert.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("coupon round trip and usage", func(t *testing.T) {
		ctx := context.Background()
		maxUses := 3
		expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		require.NoError(t, repo.CreateCoupon(ctx, d.Coupon{
			Code: "flat50", Kind: d.DiscountFlat, Value: dec("50"), MinOrder: dec("500"),
			MaxUses: &maxUses, ExpiresAt: &expires, Active: true,
		}))

		require.NoError(t, repo.RecordUsage(ctx, "FLAT50"))
		c, err := repo.Validate(ctx, "FLAT50")

		require.NoError(t, err)
		assert.Equal(t, d.DiscountFlat, c.Kind)
		assert.True(t, c.Value.Equal(dec("50")))
		assert.True(t, c.MinOrder.Equal(dec("500")))
		require.NotNil(t, c.MaxUses)
		assert.Equal(t, 3, *c.MaxUses)
		assert.Equal(t, 1, c.UsedCount)
		require.NotNil(t, c.ExpiresAt)
		assert.True(t, c.ExpiresAt.Equal(expires))
		assert.True(t, c.Active)

		assert.ErrorIs(t, repo.RecordUsage(ctx, "NOPE"), coupon.ErrNotFound)
	})

	t.Run("address upsert", func(t *testing.T) {
		ctx := context.Background()
		addr, err := repo.GetCurrentAddress(ctx, "user-addr")
		require.NoError(t, err)
		assert.Nil(t, addr)

		_, err = repo.UpsertAddress(ctx, "user-addr", testAddress())
		require.NoError(t, err)
		changed := testAddress()
		changed.City = "Thrissur"
		_, err = repo.UpsertAddress(ctx, "user-addr", changed)
		require.NoError(t, err)

		addr, err = repo.GetCurrentAddress(ctx, "user-addr")
		require.NoError(t, err)
		require.NotNil(t, addr)
		assert.Equal(t, "Thrissur", addr.City)
		assert.Equal(t, "Near the ferry", addr.Landmark)
	})

	t.Run("order lifecycle with captured payment", func(t *testing.T) {
		ctx := context.Background()
		order, err := repo.CreateOrder(ctx, "user-1", testSummary(), testAddress())
		require.NoError(t, err)
		assert.NotEmpty(t, order.OrderNumber)
		assert.Equal(t, d.OrderStatusPaymentPending, order.Status)

		loaded, err := repo.GetOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Total.Equal(dec("2350")))
		assert.Equal(t, "FLAT50", loaded.CouponCode)
		assert.Equal(t, "Kochi", loaded.ShippingAddress.City)
		require.Len(t, loaded.Items, 1)
		assert.True(t, loaded.Items[0].LineTotal.Equal(dec("2400")))

		session := &d.PaymentSession{SessionID: "order_GW1", OrderID: order.ID, Amount: order.Total, Currency: "INR", CorrelationID: "order_GW1"}
		require.NoError(t, repo.AttachPayment(ctx, order.ID, session))
		assert.ErrorIs(t, repo.AttachPayment(ctx, order.ID, session), ErrDuplicateSession)

		report, err := repo.QueryStatus(ctx, "order_GW1")
		require.NoError(t, err)
		assert.Equal(t, d.PaymentStatusPending, report.Status)
		assert.Equal(t, order.ID, report.OrderID)

		userID, err := repo.MarkPaymentSucceeded(ctx, "order_GW1", "pay_1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)

		report, err = repo.QueryStatus(ctx, "order_GW1")
		require.NoError(t, err)
		assert.Equal(t, d.PaymentStatusPaid, report.Status)
		assert.Equal(t, order.OrderNumber, report.OrderNumber)

		// a late failure does not undo a capture
		require.NoError(t, repo.MarkPaymentFailed(ctx, "order_GW1", "late"))
		status, err := repo.GetOrderStatus(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, d.OrderStatusPaymentPaid, status)

		deleted, err := repo.DeleteOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.False(t, deleted, "paid orders are never deleted")
	})

	t.Run("failed payment", func(t *testing.T) {
		ctx := context.Background()
		order, err := repo.CreateOrder(ctx, "user-2", testSummary(), testAddress())
		require.NoError(t, err)
		require.NoError(t, repo.AttachPayment(ctx, order.ID, &d.PaymentSession{SessionID: "order_GW2", Amount: order.Total, Currency: "INR"}))

		require.NoError(t, repo.MarkPaymentFailed(ctx, "order_GW2", "card_declined"))

		report, err := repo.QueryStatus(ctx, "order_GW2")
		require.NoError(t, err)
		assert.Equal(t, d.PaymentStatusFailed, report.Status)
		status, err := repo.GetOrderStatus(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, d.OrderStatusPaymentFailed, status)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		ctx := context.Background()
		report, err := repo.QueryStatus(ctx, "order_missing")
		require.NoError(t, err)
		assert.Equal(t, d.PaymentStatusNotFound, report.Status)

		_, err = repo.MarkPaymentSucceeded(ctx, "order_missing", "pay_x")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.ErrorIs(t, repo.MarkPaymentFailed(ctx, "order_missing", ""), ErrTransactionNotFound)
	})

	t.Run("delete pending order is idempotent", func(t *testing.T) {
		ctx := context.Background()
		order, err := repo.CreateOrder(ctx, "user-3", testSummary(), testAddress())
		require.NoError(t, err)
		require.NoError(t, repo.AttachPayment(ctx, order.ID, &d.PaymentSession{SessionID: "order_GW3", Amount: order.Total, Currency: "INR"}))

		deleted, err := repo.DeleteOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetOrderStatus(ctx, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		report, err := repo.QueryStatus(ctx, "order_GW3")
		require.NoError(t, err)
		assert.Equal(t, d.PaymentStatusNotFound, report.Status)
	})

	t.Run("attach to missing order", func(t *testing.T) {
		err := repo.AttachPayment(context.Background(), uuid.NewString(), &d.PaymentSession{SessionID: "order_GW4", Amount: dec("1"), Currency: "INR"})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestCreateOrder_NumbersStartAt1250(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.CreateOrder(ctx, "user-1", testSummary(), testAddress())
	require.NoError(t, err)
	second, err := repo.CreateOrder(ctx, "user-1", testSummary(), testAddress())
	require.NoError(t, err)

	assert.Equal(t, "1250", first.OrderNumber)
	assert.Equal(t, "1251", second.OrderNumber)
}

func TestContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond)

	_, err := repo.QueryStatus(ctx, "any")
	assert.Error(t, err)
}
