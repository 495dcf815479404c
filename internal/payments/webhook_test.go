package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const succeededPayload = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "api_version": "2020-08-27",
  "data": {"object": {
    "id": "pi_123",
    "object": "payment_intent",
    "amount": 80000,
    "currency": "mxn",
    "status": "succeeded",
    "customer": "cus_1",
    "metadata": {"location_id": "1", "reservation_date": "2026-02-14", "deposit": "true", "extras": "10:2"}
  }}
}`

func TestParseWebhook(t *testing.T) {
	payload := []byte(succeededPayload)

	t.Run("Succeeded", func(t *testing.T) {
		ev, err := ParseWebhook(payload, sign(payload, testSecret, time.Now()), testSecret)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, EventPaymentSucceeded, ev.Type)
		require.NotNil(t, ev.PaymentIntent)
		assert.Equal(t, "pi_123", ev.PaymentIntent.ID)
		assert.Equal(t, int64(80000), ev.PaymentIntent.Amount)
		assert.Equal(t, "cus_1", ev.PaymentIntent.CustomerID)
		assert.Equal(t, "2026-02-14", ev.PaymentIntent.Metadata["reservation_date"])
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := ParseWebhook(payload, sign(payload, "whsec_other", time.Now()), testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		sig := sign(payload, testSecret, time.Now())
		tampered := []byte(succeededPayload[:len(succeededPayload)-1] + " }")
		_, err := ParseWebhook(tampered, sig, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("StaleTimestamp", func(t *testing.T) {
		_, err := ParseWebhook(payload, sign(payload, testSecret, time.Now().Add(-time.Hour)), testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		_, err := ParseWebhook(payload, "", testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Failed", func(t *testing.T) {
		failed := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.payment_failed",
          "data":{"object":{"id":"pi_9","object":"payment_intent","status":"requires_payment_method",
          "last_payment_error":{"message":"Your card was declined."}}}}`)
		ev, err := ParseWebhook(failed, sign(failed, testSecret, time.Now()), testSecret)
		require.NoError(t, err)
		assert.Equal(t, EventPaymentFailed, ev.Type)
		assert.Equal(t, "pi_9", ev.PaymentIntent.ID)
		assert.Equal(t, "Your card was declined.", ev.FailureMessage)
	})

	t.Run("OtherEventIgnored", func(t *testing.T) {
		other := []byte(`{"id":"evt_3","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
		ev, err := ParseWebhook(other, sign(other, testSecret, time.Now()), testSecret)
		require.NoError(t, err)
		assert.Equal(t, "charge.refunded", ev.Type)
		assert.Nil(t, ev.PaymentIntent)
	})
}
