package domain

import (
	"context"
	"errors"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type CatalogRepository interface {
	ListActiveLocations(ctx context.Context, since string) ([]*models.Location, error)
	ListActiveExtras(ctx context.Context) ([]*models.Extra, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	GetExtrasByIDs(ctx context.Context, ids []int64) (map[int64]*models.Extra, error)
	IsDateBlocked(ctx context.Context, locationID int64, date string) (bool, error)
	BlockedDatesBetween(ctx context.Context, locationID int64, from, to string) ([]string, error)
}

type CustomerRepository interface {
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByAuthID(ctx context.Context, authID string) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
}

type OrderRepository interface {
	CreateOrderWithBlock(ctx context.Context, o *models.Order) (bool, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListCustomerOrders(ctx context.Context, customerID int64) ([]*models.Order, error)
	ListOrdersDueForReminder(ctx context.Context, date string) ([]*models.OrderWithCustomer, error)
	ListOrdersBetween(ctx context.Context, from, to string) ([]*models.OrderWithCustomer, error)
	MarkReminderSent(ctx context.Context, orderID int64, at time.Time) error
}

type PaymentGateway interface {
	CreateCustomer(ctx context.Context, c *models.Customer) (string, error)
	CreatePaymentIntent(ctx context.Context, params *models.PaymentIntentParams) (*models.PaymentIntent, error)
	UpdatePaymentIntent(ctx context.Context, id string, params *models.PaymentIntentParams) (*models.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
}

// ErrMailDisabled is returned by mailers that cannot deliver. The reminder
// stays unsent.
var ErrMailDisabled = errors.New("email delivery is disabled")

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.OrderWithCustomer) error
	SendReminder(ctx context.Context, order *models.OrderWithCustomer) error
}

type StaffNotifier interface {
	NotifyOrder(ctx context.Context, order *models.OrderWithCustomer) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TokenVerifier interface {
	Verify(token string) (*models.Identity, error)
}

// IdempotencyStore remembers keys that were already handled.
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether this was the first time.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget drops key so a later delivery is handled again.
	Forget(ctx context.Context, key string) error
}

type CatalogCache interface {
	GetLocations(ctx context.Context) ([]*models.Location, bool, error)
	SetLocations(ctx context.Context, locations []*models.Location) error
	GetExtras(ctx context.Context) ([]*models.Extra, bool, error)
	SetExtras(ctx context.Context, extras []*models.Extra) error
	Invalidate(ctx context.Context) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
