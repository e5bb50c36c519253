package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

var eventPayload = []byte(`{
	"id": "evt_1",
	"type": "payment_intent.succeeded",
	"data": {"object": {"id": "pi_123", "metadata": {"orderId": "order-42"}}}
}`)

func TestVerifyEvent(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	header := SignPayload(eventPayload, webhookSecret, now)

	event, err := VerifyEvent(eventPayload, header, webhookSecret, DefaultTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "order-42", event.OrderID())
	assert.Equal(t, "pi_123", event.Data.Object.ID)
}

func TestVerifyEventRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	header := SignPayload(eventPayload, "whsec_other", now)

	_, err := VerifyEvent(eventPayload, header, webhookSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyEventRejectsTamperedPayload(t *testing.T) {
	now := time.Now()
	header := SignPayload(eventPayload, webhookSecret, now)
	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_999","metadata":{"orderId":"order-43"}}}}`)

	_, err := VerifyEvent(tampered, header, webhookSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyEventRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	header := SignPayload(eventPayload, webhookSecret, now.Add(-10*time.Minute))

	_, err := VerifyEvent(eventPayload, header, webhookSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrStaleEvent)
}

func TestVerifyEventRejectsMalformedHeaders(t *testing.T) {
	now := time.Now()
	headers := []string{
		"",
		"t=notanumber,v1=deadbeef",
		"v1=deadbeef",
		fmt.Sprintf("t=%d", now.Unix()),
	}
	for _, h := range headers {
		_, err := VerifyEvent(eventPayload, h, webhookSecret, DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", h)
	}
}
