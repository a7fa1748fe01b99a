package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/fjod/go_cart/checkout/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client talks to the hosted payment gateway. Sessions are gateway orders;
// the shopper finishes them in the gateway UI, whose callback reaches the
// Broker.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.Breaker[string]
	broker  *Broker
	logger  *zap.Logger
}

func NewClient(cfg Config, broker *Broker, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[string](circuitbreaker.DefaultConfig("payment-gateway"), logger),
		broker:  broker,
		logger:  logger,
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateSession creates a gateway order for amount and returns its id.
// Amounts travel in minor units.
func (c *Client) CreateSession(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	body, err := json.Marshal(createOrderRequest{
		Amount:         ToMinorUnits(amount),
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gateway order: %w", err)
	}

	id, err := c.breaker.Execute(func() (string, error) {
		return c.createOrder(ctx, body)
	})
	if err != nil {
		return "", err
	}
	c.broker.Register(id)

	c.logger.Info("gateway session created",
		zap.String("session_id", id),
		zap.String("receipt", receipt),
		zap.String("amount", amount.StringFixed(2)))
	return id, nil
}

func (c *Client) createOrder(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return "", fmt.Errorf("%w: status %d %s %s", ErrGatewayRejected, resp.StatusCode, e.Error.Code, e.Error.Description)
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: response without order id", ErrGatewayRejected)
	}
	return out.ID, nil
}

// OpenUI waits for the shopper's completed or dismissed callback.
func (c *Client) OpenUI(ctx context.Context, sessionID string) (d.Signal, error) {
	return c.broker.Wait(ctx, sessionID)
}

// ReleaseUI forgets the callback mailbox of a session that will not be opened.
func (c *Client) ReleaseUI(sessionID string) {
	c.broker.Forget(sessionID)
}

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
