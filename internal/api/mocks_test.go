package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/auth"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) ListLocations(ctx context.Context) ([]*models.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Location), args.Error(1)
}

func (m *mockCatalog) ListExtras(ctx context.Context) ([]*models.Extra, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Extra), args.Error(1)
}

func (m *mockCatalog) Availability(ctx context.Context, locationID int64, from string, days int) ([]models.DayAvailability, error) {
	args := m.Called(ctx, locationID, from, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DayAvailability), args.Error(1)
}

type mockCheckout struct{ mock.Mock }

func (m *mockCheckout) Quote(ctx context.Context, req *service.ReservationRequest) (*pricing.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

func (m *mockCheckout) CreatePaymentIntent(ctx context.Context, id *models.Identity, req *service.ReservationRequest) (*service.PaymentIntentResult, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentIntentResult), args.Error(1)
}

func (m *mockCheckout) UpdatePaymentIntent(ctx context.Context, id *models.Identity, intentID string, req *service.ReservationRequest) (*service.PaymentIntentResult, error) {
	args := m.Called(ctx, id, intentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentIntentResult), args.Error(1)
}

type mockCustomers struct{ mock.Mock }

func (m *mockCustomers) EnsureCustomer(ctx context.Context, id *models.Identity) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) HandlePaymentSucceeded(ctx context.Context, pi *models.PaymentIntent) (*models.Order, bool, error) {
	args := m.Called(ctx, pi)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *mockOrders) ListCustomerOrders(ctx context.Context, id *models.Identity) ([]*models.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *mockOrders) GetCustomerOrder(ctx context.Context, id *models.Identity, number string) (*models.Order, error) {
	args := m.Called(ctx, id, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrders) ExportOrders(ctx context.Context, w io.Writer, from, to string) error {
	args := m.Called(ctx, w, from, to)
	if args.Error(0) == nil {
		_, _ = io.WriteString(w, "xlsx-bytes")
	}
	return args.Error(0)
}

type mockReminders struct{ mock.Mock }

func (m *mockReminders) SendDueReminders(ctx context.Context, now time.Time) (*service.ReminderResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReminderResult), args.Error(1)
}

type mockPinger struct{ err error }

func (m mockPinger) PingContext(context.Context) error { return m.err }

// tokenVerifier accepts "good-token" as the identity below.
type tokenVerifier struct{}

var testIdentity = &models.Identity{AuthID: "user_123", Email: "ana@example.com", Name: "Ana"}

func (tokenVerifier) Verify(token string) (*models.Identity, error) {
	if token == "good-token" {
		return testIdentity, nil
	}
	return nil, auth.ErrInvalidToken
}

const testWebhookSecret = "whsec_test_secret"

func signPayload(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
