package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	SignatureHeader = "X-Gateway-Signature"

	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// WebhookEvent is the part of a gateway webhook the service acts on.
type WebhookEvent struct {
	Event          string
	PaymentID      string
	GatewayOrderID string
	ErrorReason    string
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID          string `json:"id"`
				OrderID     string `json:"order_id"`
				ErrorReason string `json:"error_reason"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(body []byte, signature, secret string) error {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrInvalidSignature
	}
	return nil
}

func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	ev := &WebhookEvent{
		Event:          p.Event,
		PaymentID:      p.Payload.Payment.Entity.ID,
		GatewayOrderID: p.Payload.Payment.Entity.OrderID,
		ErrorReason:    p.Payload.Payment.Entity.ErrorReason,
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedWebhook)
	}
	if (ev.Event == EventPaymentCaptured || ev.Event == EventPaymentFailed) && ev.GatewayOrderID == "" {
		return nil, fmt.Errorf("%w: %s without order id", ErrMalformedWebhook, ev.Event)
	}
	return ev, nil
}
