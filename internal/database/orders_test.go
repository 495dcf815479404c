package database

import (
	"context"
	"testing"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(customerID, locationID int64, pi, date string) *models.Order {
	return &models.Order{
		OrderNumber:     "CMT-" + pi,
		Status:          models.StatusPaid,
		Total:           160000,
		AmountPaid:      160000,
		Currency:        "mxn",
		ReservationDate: date,
		CustomerID:      customerID,
		LocationID:      locationID,
		PaymentIntentID: pi,
		Items: []models.OrderItem{
			{Kind: models.ItemKindLocation, RefID: locationID, Name: "Terraza", Quantity: 1, Price: 150000},
			{Kind: models.ItemKindExtra, RefID: 10, Name: "Globos", Quantity: 2, Price: 5000},
		},
	}
}

func setupOrderFixtures(t *testing.T) (*DB, *models.Customer, *models.Location) {
	t.Helper()
	db := setupTestDB(t)
	loc, _ := seedCatalog(t, db)
	c := &models.Customer{Email: "ana@example.com", Name: "Ana", Phone: "8112345678", AuthID: "user_1"}
	require.NoError(t, db.CreateCustomer(context.Background(), c))
	return db, c, loc
}

func TestCreateOrderWithBlock(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	o := newTestOrder(c.ID, loc.ID, "pi_1", "2026-02-14")
	created, err := db.CreateOrderWithBlock(ctx, o)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, o.ID)
	assert.Equal(t, models.StatusPaid, o.Status)

	blocked, err := db.IsDateBlocked(ctx, loc.ID, "2026-02-14")
	require.NoError(t, err)
	assert.True(t, blocked)

	got, err := db.GetOrderByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", got.PaymentIntentID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, models.ItemKindLocation, got.Items[0].Kind)
	assert.Equal(t, int64(2), got.Items[1].Quantity)
	assert.Equal(t, got.Total, got.ItemsTotal())
	assert.Nil(t, got.ReminderSentAt)
}

func TestCreateOrderWithBlock_Idempotent(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	first := newTestOrder(c.ID, loc.ID, "pi_1", "2026-02-14")
	_, err := db.CreateOrderWithBlock(ctx, first)
	require.NoError(t, err)

	again := newTestOrder(c.ID, loc.ID, "pi_1", "2026-02-14")
	again.OrderNumber = "CMT-other"
	created, err := db.CreateOrderWithBlock(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.OrderNumber, again.OrderNumber)
	assert.Equal(t, models.StatusPaid, again.Status)

	orders, err := db.ListCustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCreateOrderWithBlock_Conflict(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	_, err := db.CreateOrderWithBlock(ctx, newTestOrder(c.ID, loc.ID, "pi_1", "2026-02-14"))
	require.NoError(t, err)

	late := newTestOrder(c.ID, loc.ID, "pi_2", "2026-02-14")
	created, err := db.CreateOrderWithBlock(ctx, late)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.StatusConflict, late.Status)

	got, err := db.GetOrderByPaymentIntent(ctx, "pi_2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, got.Status)

	dates, err := db.BlockedDatesBetween(ctx, loc.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-14"}, dates)
}

func TestGetOrderNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetOrderByNumber(context.Background(), "CMT-missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetOrderByPaymentIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCustomerOrders(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	for i, date := range []string{"2026-02-10", "2026-03-01", "2026-02-20"} {
		o := newTestOrder(c.ID, loc.ID, "pi_"+string(rune('a'+i)), date)
		_, err := db.CreateOrderWithBlock(ctx, o)
		require.NoError(t, err)
	}

	orders, err := db.ListCustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "2026-03-01", orders[0].ReservationDate)
	assert.Equal(t, "2026-02-10", orders[2].ReservationDate)
	assert.Len(t, orders[1].Items, 2)

	none, err := db.ListCustomerOrders(ctx, c.ID+100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReminderQueries(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	paid := newTestOrder(c.ID, loc.ID, "pi_paid", "2026-02-14")
	_, err := db.CreateOrderWithBlock(ctx, paid)
	require.NoError(t, err)

	other := &models.Location{ID: 2, Slug: "jardin", Name: "Jardín", Price: 90000, IsActive: true}
	_, err = db.UpsertLocation(ctx, other)
	require.NoError(t, err)
	deposit := newTestOrder(c.ID, other.ID, "pi_deposit", "2026-02-14")
	deposit.Status = models.StatusPartiallyPaid
	deposit.AmountPaid, deposit.AmountPending = 80000, 80000
	_, err = db.CreateOrderWithBlock(ctx, deposit)
	require.NoError(t, err)

	conflict := newTestOrder(c.ID, loc.ID, "pi_conflict", "2026-02-14")
	_, err = db.CreateOrderWithBlock(ctx, conflict)
	require.NoError(t, err)
	require.Equal(t, models.StatusConflict, conflict.Status)

	due, err := db.ListOrdersDueForReminder(ctx, "2026-02-14")
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "Ana", due[0].CustomerName)
	assert.Equal(t, "ana@example.com", due[0].CustomerEmail)
	assert.Equal(t, "Terraza", due[0].LocationName)
	assert.Equal(t, "Jardín", due[1].LocationName)

	sentAt := time.Date(2026, 2, 13, 15, 0, 0, 0, time.UTC)
	require.NoError(t, db.MarkReminderSent(ctx, paid.ID, sentAt))
	assert.ErrorIs(t, db.MarkReminderSent(ctx, 9999, sentAt), ErrNotFound)

	due, err = db.ListOrdersDueForReminder(ctx, "2026-02-14")
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "pi_deposit", due[0].PaymentIntentID)

	got, err := db.GetOrderByPaymentIntent(ctx, "pi_paid")
	require.NoError(t, err)
	require.NotNil(t, got.ReminderSentAt)
	assert.True(t, sentAt.Equal(*got.ReminderSentAt))

	none, err := db.ListOrdersDueForReminder(ctx, "2026-02-15")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListOrdersBetween(t *testing.T) {
	db, c, loc := setupOrderFixtures(t)
	ctx := context.Background()

	for _, tc := range []struct{ pi, date string }{
		{"pi_1", "2026-01-31"},
		{"pi_2", "2026-02-01"},
		{"pi_3", "2026-02-28"},
		{"pi_4", "2026-03-01"},
	} {
		_, err := db.CreateOrderWithBlock(ctx, newTestOrder(c.ID, loc.ID, tc.pi, tc.date))
		require.NoError(t, err)
	}

	orders, err := db.ListOrdersBetween(ctx, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "pi_2", orders[0].PaymentIntentID)
	assert.Equal(t, "pi_3", orders[1].PaymentIntentID)
	assert.Equal(t, "8112345678", orders[0].CustomerPhone)
}
