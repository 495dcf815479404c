package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, c *models.Customer) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, p *models.PaymentIntentParams) (*models.PaymentIntent, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *mockGateway) UpdatePaymentIntent(ctx context.Context, id string, p *models.PaymentIntentParams) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *mockGateway) GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendOrderConfirmation(ctx context.Context, o *models.OrderWithCustomer) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockMailer) SendReminder(ctx context.Context, o *models.OrderWithCustomer) error {
	return m.Called(ctx, o).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyOrder(ctx context.Context, o *models.OrderWithCustomer) error {
	return m.Called(ctx, o).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

var testNow = time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testRules() BookingRules {
	return BookingRules{DepositEnabled: true, MaxAdvanceDays: 90, Location: time.UTC}
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "service.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, l := range []*models.Location{
		{ID: 1, Slug: "terraza", Name: "Terraza", Price: 150000, IsActive: true, SortOrder: 1},
		{ID: 2, Slug: "jardin", Name: "Jardín", Price: 90000, IsActive: true, SortOrder: 2},
		{ID: 3, Slug: "sotano", Name: "Sótano", Price: 50000, IsActive: false},
	} {
		_, err := db.UpsertLocation(ctx, l)
		require.NoError(t, err)
	}
	for _, e := range []*models.Extra{
		{ID: 10, Name: "Globos", Price: 5000, HasQuantity: true, IsActive: true},
		{ID: 11, Name: "Pastel", Price: 35000, IsActive: true},
		{ID: 12, Name: "Mariachi", Price: 400000, IsActive: false},
	} {
		_, err := db.UpsertExtra(ctx, e)
		require.NoError(t, err)
	}
	return db
}

func seedCustomer(t *testing.T, db *database.DB, c *models.Customer) *models.Customer {
	t.Helper()
	require.NoError(t, db.CreateCustomer(context.Background(), c))
	return c
}
