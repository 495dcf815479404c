package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/events"
	"github.com/thegera4/cool-morning-tables-sub000/internal/export"
	"github.com/thegera4/cool-morning-tables-sub000/internal/metrics"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxExportDays bounds the range of a single export.
const maxExportDays = 366

type OrderService struct {
	orders    domain.OrderRepository
	catalog   domain.CatalogRepository
	customers domain.CustomerRepository
	eventBus  domain.EventPublisher
	onCreated func(ctx context.Context)
	rules     BookingRules
	currency  string
	sheetName string
	now       func() time.Time
	logger    *zerolog.Logger
}

type OrderServiceConfig struct {
	Rules     BookingRules
	Currency  string
	SheetName string
	// OnCreated runs after an order blocked a date, e.g. to drop cached listings.
	OnCreated func(ctx context.Context)
}

func NewOrderService(
	orders domain.OrderRepository,
	catalog domain.CatalogRepository,
	customers domain.CustomerRepository,
	eventBus domain.EventPublisher,
	cfg OrderServiceConfig,
	logger *zerolog.Logger,
) *OrderService {
	if cfg.Currency == "" {
		cfg.Currency = models.DefaultCurrency
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Reservaciones"
	}
	return &OrderService{
		orders:    orders,
		catalog:   catalog,
		customers: customers,
		eventBus:  eventBus,
		onCreated: cfg.OnCreated,
		rules:     cfg.Rules,
		currency:  cfg.Currency,
		sheetName: cfg.SheetName,
		now:       time.Now,
		logger:    logger,
	}
}

// HandlePaymentSucceeded turns a succeeded payment intent into an order and
// blocks its date. It is idempotent on the intent id: created is false when
// the order already existed.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, pi *models.PaymentIntent) (order *models.Order, created bool, err error) {
	meta, err := parseIntentMetadata(pi.Metadata)
	if err != nil {
		return nil, false, err
	}

	if existing, err := s.orders.GetOrderByPaymentIntent(ctx, pi.ID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	quote, err := s.reprice(ctx, meta)
	if err != nil {
		return nil, false, err
	}
	if quote.AmountDue != pi.Amount {
		s.logger.Warn().
			Str("payment_intent_id", pi.ID).
			Int64("charged", pi.Amount).
			Int64("quoted", quote.AmountDue).
			Msg("charged amount differs from current prices")
	}

	status := models.StatusPaid
	if quote.AmountPending > 0 {
		status = models.StatusPartiallyPaid
	}
	currency := strings.ToLower(pi.Currency)
	if currency == "" {
		currency = s.currency
	}

	order = &models.Order{
		OrderNumber:     s.newOrderNumber(),
		Status:          status,
		Items:           quote.Items,
		Total:           quote.Total,
		AmountPaid:      quote.AmountDue,
		AmountPending:   quote.AmountPending,
		Currency:        currency,
		ReservationDate: meta.date,
		CustomerID:      meta.customerID,
		LocationID:      meta.locationID,
		PaymentIntentID: pi.ID,
	}

	created, err = s.orders.CreateOrderWithBlock(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return order, false, nil
	}

	metrics.IncOrderCreated(order.Status)
	if order.Status == models.StatusConflict {
		s.logger.Error().
			Str("order_number", order.OrderNumber).
			Int64("location_id", order.LocationID).
			Str("date", order.ReservationDate).
			Msg("paid order conflicts with an existing reservation")
	} else {
		s.logger.Info().Str("order_number", order.OrderNumber).Str("status", order.Status).Msg("order created")
	}

	if s.onCreated != nil {
		s.onCreated(ctx)
	}
	s.publishCreated(ctx, order)

	return order, true, nil
}

type intentMetadata struct {
	locationID int64
	customerID int64
	date       string
	deposit    bool
	extras     []pricing.Selection
}

func parseIntentMetadata(md map[string]string) (*intentMetadata, error) {
	var (
		m   intentMetadata
		err error
	)
	if m.locationID, err = strconv.ParseInt(md[models.MetaLocationID], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, models.MetaLocationID)
	}
	if m.customerID, err = strconv.ParseInt(md[models.MetaCustomerID], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, models.MetaCustomerID)
	}
	if _, err := time.Parse(models.DateLayout, md[models.MetaReservationDate]); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, models.MetaReservationDate)
	}
	m.date = md[models.MetaReservationDate]
	if raw := md[models.MetaDeposit]; raw != "" {
		if m.deposit, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, models.MetaDeposit)
		}
	}
	if m.extras, err = pricing.ParseSelections(md[models.MetaExtras]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return &m, nil
}

// reprice rebuilds the quote for a paid intent. Catalog entries deactivated
// after checkout are still priced since the customer already paid.
func (s *OrderService) reprice(ctx context.Context, meta *intentMetadata) (*pricing.Quote, error) {
	location, err := s.catalog.GetLocation(ctx, meta.locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %d: %w", meta.locationID, err)
	}
	loc := *location
	loc.IsActive = true

	ids := make([]int64, 0, len(meta.extras))
	for _, sel := range meta.extras {
		ids = append(ids, sel.ExtraID)
	}
	extras, err := s.catalog.GetExtrasByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, e := range extras {
		active := *e
		active.IsActive = true
		extras[id] = &active
	}

	return pricing.Calculate(&loc, meta.extras, extras, meta.deposit)
}

func (s *OrderService) newOrderNumber() string {
	day := s.now().In(s.rules.location()).Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("CMT-%s-%s", day, suffix)
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	if s.eventBus == nil {
		return
	}

	full := s.withCustomer(ctx, order)
	payload := events.OrderEventPayload{Order: *full, Conflict: order.Status == models.StatusConflict}
	if err := s.eventBus.PublishJSON(events.EventOrderCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to publish order event")
	}
}

func (s *OrderService) withCustomer(ctx context.Context, order *models.Order) *models.OrderWithCustomer {
	full := &models.OrderWithCustomer{Order: *order}
	if c, err := s.customers.GetCustomerByID(ctx, order.CustomerID); err == nil {
		full.CustomerName = c.Name
		full.CustomerEmail = c.Email
		full.CustomerPhone = c.Phone
	} else {
		s.logger.Error().Err(err).Int64("customer_id", order.CustomerID).Msg("failed to load order customer")
	}
	if l, err := s.catalog.GetLocation(ctx, order.LocationID); err == nil {
		full.LocationName = l.Name
	}
	return full
}

// ListCustomerOrders returns the caller's orders; a caller without a customer
// record simply has none.
func (s *OrderService) ListCustomerOrders(ctx context.Context, id *models.Identity) ([]*models.Order, error) {
	c, err := s.customers.GetCustomerByAuthID(ctx, id.AuthID)
	if errors.Is(err, database.ErrNotFound) {
		return []*models.Order{}, nil
	}
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListCustomerOrders(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

func (s *OrderService) GetCustomerOrder(ctx context.Context, id *models.Identity, number string) (*models.Order, error) {
	order, err := s.orders.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.GetCustomerByAuthID(ctx, id.AuthID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if order.CustomerID != c.ID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ExportOrders writes the workbook of orders with reservation dates in [from, to].
func (s *OrderService) ExportOrders(ctx context.Context, w io.Writer, from, to string) error {
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return fmt.Errorf("%w: from %q", ErrInvalidRange, from)
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return fmt.Errorf("%w: to %q", ErrInvalidRange, to)
	}
	if end.Before(start) || end.Sub(start) > maxExportDays*24*time.Hour {
		return fmt.Errorf("%w: %s..%s", ErrInvalidRange, from, to)
	}

	orders, err := s.orders.ListOrdersBetween(ctx, from, to)
	if err != nil {
		return err
	}
	return export.WriteOrders(w, s.sheetName, from, to, orders)
}
