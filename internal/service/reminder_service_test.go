package service

import (
	"context"
	"errors"
	"testing"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedPaidOrder(t *testing.T, db *database.DB, pi, date string, locationID int64, status string) {
	t.Helper()
	o := &models.Order{
		OrderNumber:     "CMT-" + pi,
		Status:          status,
		Total:           150000,
		AmountPaid:      150000,
		Currency:        "mxn",
		ReservationDate: date,
		CustomerID:      1,
		LocationID:      locationID,
		PaymentIntentID: pi,
		Items:           []models.OrderItem{{Kind: models.ItemKindLocation, RefID: locationID, Name: "x", Quantity: 1, Price: 150000}},
	}
	_, err := db.CreateOrderWithBlock(context.Background(), o)
	require.NoError(t, err)
}

func byOrderNumber(number string) interface{} {
	return mock.MatchedBy(func(o *models.OrderWithCustomer) bool { return o.OrderNumber == number })
}

func TestReminderService_SendDueReminders(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedCustomer(t, db, &models.Customer{Email: "ana@example.com", Name: "Ana"})

	// testNow is 2026-02-01; with one lead day the sweep targets 2026-02-02
	seedPaidOrder(t, db, "pi_a", "2026-02-02", 1, models.StatusPaid)
	seedPaidOrder(t, db, "pi_b", "2026-02-02", 2, models.StatusPartiallyPaid)
	seedPaidOrder(t, db, "pi_c", "2026-02-03", 1, models.StatusPaid)
	seedPaidOrder(t, db, "pi_d", "2026-02-02", 1, models.StatusPaid) // conflict, not reminded

	mailer := new(mockMailer)
	mailer.On("SendReminder", ctx, byOrderNumber("CMT-pi_a")).Return(errors.New("mailbox full")).Once()
	mailer.On("SendReminder", ctx, byOrderNumber("CMT-pi_b")).Return(nil).Once()

	svc := NewReminderService(db, mailer, testRules(), 1, testLogger())
	res, err := svc.SendDueReminders(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, &ReminderResult{Date: "2026-02-02", Due: 2, Sent: 1, Failed: 1}, res)
	mailer.AssertExpectations(t)

	// the failed order is retried on the next sweep, the sent one is not
	mailer.On("SendReminder", ctx, byOrderNumber("CMT-pi_a")).Return(nil).Once()
	res, err = svc.SendDueReminders(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, &ReminderResult{Date: "2026-02-02", Due: 1, Sent: 1, Failed: 0}, res)
	mailer.AssertExpectations(t)

	res, err = svc.SendDueReminders(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Due)
}

func TestReminderService_Cancelled(t *testing.T) {
	db := setupDB(t)
	seedCustomer(t, db, &models.Customer{Email: "ana@example.com"})
	seedPaidOrder(t, db, "pi_a", "2026-02-02", 1, models.StatusPaid)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewReminderService(db, new(mockMailer), testRules(), 1, testLogger())
	res, err := svc.SendDueReminders(ctx, testNow)
	assert.ErrorIs(t, err, context.Canceled)
	if res != nil {
		assert.Equal(t, 0, res.Sent)
	}
}

func TestReminderService_MailDisabled(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedCustomer(t, db, &models.Customer{Email: "ana@example.com"})
	seedPaidOrder(t, db, "pi_a", "2026-02-02", 1, models.StatusPaid)

	mailer := new(mockMailer)
	mailer.On("SendReminder", ctx, byOrderNumber("CMT-pi_a")).Return(domain.ErrMailDisabled).Once()

	svc := NewReminderService(db, mailer, testRules(), 1, testLogger())
	res, err := svc.SendDueReminders(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, &ReminderResult{Date: "2026-02-02", Due: 1, Skipped: 1}, res)

	// once mail works the order is still due
	mailer.On("SendReminder", ctx, byOrderNumber("CMT-pi_a")).Return(nil).Once()
	res, err = svc.SendDueReminders(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, &ReminderResult{Date: "2026-02-02", Due: 1, Sent: 1}, res)
	mailer.AssertExpectations(t)
}

func TestReminderService_DefaultLeadDays(t *testing.T) {
	svc := NewReminderService(nil, nil, testRules(), 0, testLogger())
	assert.Equal(t, models.DefaultReminderLeadDays, svc.leadDays)
}
