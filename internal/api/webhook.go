package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/metrics"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/payments"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"
)

const maxWebhookBytes = 1 << 20

const processedEventTTL = models.ProcessedEventTTL * time.Second

// handleStripeWebhook verifies and applies payment events. Any non-2xx
// answer makes the provider redeliver, so only storage failures return 500.
func (s *HTTPServer) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	event, err := payments.ParseWebhook(payload, r.Header.Get(payments.SignatureHeader), s.webhookSecret)
	if err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		s.logger.Warn().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("webhook rejected")
		status := http.StatusBadRequest
		msg := "invalid payload"
		if errors.Is(err, payments.ErrInvalidSignature) {
			msg = "invalid signature"
		}
		writeError(w, status, msg)
		return
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	if event.Type != payments.EventPaymentSucceeded && event.Type != payments.EventPaymentFailed {
		metrics.IncWebhookEvent(event.Type, "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	key := "stripe:" + event.ID
	if s.svc.Idempotency != nil {
		first, err := s.svc.Idempotency.MarkProcessed(r.Context(), key, processedEventTTL)
		if err != nil {
			// order creation is idempotent on the intent id as well
			log.Warn().Err(err).Msg("webhook dedup unavailable")
		} else if !first {
			metrics.IncWebhookEvent(event.Type, "duplicate")
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	if event.Type == payments.EventPaymentFailed {
		log.Warn().
			Str("payment_intent", event.PaymentIntent.ID).
			Str("reason", event.FailureMessage).
			Msg("payment failed")
		metrics.IncWebhookEvent(event.Type, "processed")
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
		return
	}

	order, created, err := s.svc.Orders.HandlePaymentSucceeded(r.Context(), event.PaymentIntent)
	if errors.Is(err, service.ErrInvalidMetadata) {
		// not one of our checkout intents; redelivery would not help
		log.Error().Err(err).Str("payment_intent", event.PaymentIntent.ID).Msg("payment intent without reservation metadata")
		metrics.IncWebhookEvent(event.Type, "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		s.forget(r, key)
		log.Error().Err(err).Str("payment_intent", event.PaymentIntent.ID).Msg("order creation failed")
		metrics.IncWebhookEvent(event.Type, "failed")
		writeError(w, http.StatusInternalServerError, "order creation failed")
		return
	}

	metrics.IncWebhookEvent(event.Type, "processed")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "processed",
		"order_number": order.OrderNumber,
		"order_status": order.Status,
		"created":      created,
	})
}

func (s *HTTPServer) forget(r *http.Request, key string) {
	if s.svc.Idempotency == nil {
		return
	}
	if err := s.svc.Idempotency.Forget(r.Context(), key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to release webhook dedup key")
	}
}
