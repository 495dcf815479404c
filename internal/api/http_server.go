package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/auth"
	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type CatalogService interface {
	ListLocations(ctx context.Context) ([]*models.Location, error)
	ListExtras(ctx context.Context) ([]*models.Extra, error)
	Availability(ctx context.Context, locationID int64, from string, days int) ([]models.DayAvailability, error)
}

type CheckoutService interface {
	Quote(ctx context.Context, req *service.ReservationRequest) (*pricing.Quote, error)
	CreatePaymentIntent(ctx context.Context, id *models.Identity, req *service.ReservationRequest) (*service.PaymentIntentResult, error)
	UpdatePaymentIntent(ctx context.Context, id *models.Identity, intentID string, req *service.ReservationRequest) (*service.PaymentIntentResult, error)
}

type CustomerService interface {
	EnsureCustomer(ctx context.Context, id *models.Identity) (*models.Customer, error)
}

type OrderService interface {
	HandlePaymentSucceeded(ctx context.Context, pi *models.PaymentIntent) (*models.Order, bool, error)
	ListCustomerOrders(ctx context.Context, id *models.Identity) ([]*models.Order, error)
	GetCustomerOrder(ctx context.Context, id *models.Identity, number string) (*models.Order, error)
	ExportOrders(ctx context.Context, w io.Writer, from, to string) error
}

type ReminderService interface {
	SendDueReminders(ctx context.Context, now time.Time) (*service.ReminderResult, error)
}

// Pinger reports storage readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups what the HTTP handlers depend on. Idempotency may be nil.
type Services struct {
	Catalog     CatalogService
	Checkout    CheckoutService
	Customers   CustomerService
	Orders      OrderService
	Reminders   ReminderService
	DB          Pinger
	Verifier    domain.TokenVerifier
	Idempotency domain.IdempotencyStore
}

// HTTPServer exposes the public booking API, the payment webhook and the
// machine endpoints.
type HTTPServer struct {
	cfg           *config.APIConfig
	webhookSecret string
	svc           Services
	server        *http.Server
	keys          *APIKeyAuth
	limiter       *rateLimiter
	validate      *validator.Validate
	logger        *zerolog.Logger
	now           func() time.Time
}

func NewHTTPServer(cfg *config.APIConfig, webhookSecret string, svc Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:           cfg,
		webhookSecret: webhookSecret,
		svc:           svc,
		keys:          NewAPIKeyAuth(cfg.Auth),
		limiter:       newRateLimiter(cfg),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
		now:           time.Now,
	}

	mux := http.NewServeMux()
	public := srv.limiter.Wrap
	session := auth.Middleware(svc.Verifier, logger)
	user := func(h http.HandlerFunc) http.Handler { return public(session(h)) }

	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	mux.HandleFunc("GET /readyz", srv.handleReadyz)

	mux.Handle("GET /api/v1/locations", public(http.HandlerFunc(srv.handleLocations)))
	mux.Handle("GET /api/v1/extras", public(http.HandlerFunc(srv.handleExtras)))
	mux.Handle("GET /api/v1/availability/{locationID}", public(http.HandlerFunc(srv.handleAvailability)))
	mux.Handle("POST /api/v1/quote", public(http.HandlerFunc(srv.handleQuote)))

	mux.Handle("POST /api/v1/customers/me", user(srv.handleSyncCustomer))
	mux.Handle("POST /api/v1/payment-intents", user(srv.handleCreatePaymentIntent))
	mux.Handle("PUT /api/v1/payment-intents/{id}", user(srv.handleUpdatePaymentIntent))
	mux.Handle("GET /api/v1/orders", user(srv.handleListOrders))
	mux.Handle("GET /api/v1/orders/{number}", user(srv.handleGetOrder))

	mux.HandleFunc("POST /api/v1/webhooks/stripe", srv.handleStripeWebhook)

	mux.Handle("POST /api/v1/cron/reminders", srv.keys.Require(PermRunReminders, http.HandlerFunc(srv.handleReminders)))
	mux.Handle("GET /api/v1/admin/orders/export", srv.keys.Require(PermReadOrders, http.HandlerFunc(srv.handleExportOrders)))

	handler := requestIDMiddleware(loggingMiddleware(logger, recoverMiddleware(logger, mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.DB.PingContext(ctx); err != nil {
		s.logger.Error().Err(err).Msg("readiness check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
