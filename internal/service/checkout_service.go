package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/metrics"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"

	"github.com/rs/zerolog"
)

// ReservationRequest is what the customer picked on the booking page.
type ReservationRequest struct {
	LocationID      int64               `json:"location_id" validate:"required,gt=0"`
	ReservationDate string              `json:"reservation_date" validate:"omitempty,datetime=2006-01-02"`
	Extras          []pricing.Selection `json:"extras" validate:"omitempty,max=50,dive"`
	Deposit         bool                `json:"deposit"`
}

type PaymentIntentResult struct {
	PaymentIntentID string         `json:"payment_intent_id"`
	ClientSecret    string         `json:"client_secret"`
	Quote           *pricing.Quote `json:"quote"`
}

type CheckoutService struct {
	catalog   domain.CatalogRepository
	customers *CustomerService
	payments  domain.PaymentGateway
	rules     BookingRules
	currency  string
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewCheckoutService(
	catalog domain.CatalogRepository,
	customers *CustomerService,
	payments domain.PaymentGateway,
	rules BookingRules,
	currency string,
	logger *zerolog.Logger,
) *CheckoutService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &CheckoutService{
		catalog:   catalog,
		customers: customers,
		payments:  payments,
		rules:     rules,
		currency:  currency,
		now:       time.Now,
		logger:    logger,
	}
}

// Quote prices the request with current catalog prices without side effects.
func (s *CheckoutService) Quote(ctx context.Context, req *ReservationRequest) (*pricing.Quote, error) {
	if req.Deposit && !s.rules.DepositEnabled {
		return nil, ErrDepositDisabled
	}

	location, err := s.catalog.GetLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Extras))
	for _, sel := range req.Extras {
		ids = append(ids, sel.ExtraID)
	}
	extras, err := s.catalog.GetExtrasByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return pricing.Calculate(location, req.Extras, extras, req.Deposit)
}

// CreatePaymentIntent validates the date, prices the reservation server side
// and opens a payment intent for the amount due now.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, id *models.Identity, req *ReservationRequest) (*PaymentIntentResult, error) {
	quote, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.EnsureCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	pcID, err := s.customers.EnsurePaymentCustomer(ctx, customer)
	if err != nil {
		return nil, err
	}

	pi, err := s.payments.CreatePaymentIntent(ctx, s.intentParams(customer, pcID, req, quote))
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentIntent("created")

	s.logger.Info().
		Str("payment_intent_id", pi.ID).
		Int64("customer_id", customer.ID).
		Int64("location_id", req.LocationID).
		Str("date", req.ReservationDate).
		Int64("amount", quote.AmountDue).
		Msg("payment intent created")

	return &PaymentIntentResult{PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret, Quote: quote}, nil
}

// UpdatePaymentIntent re-prices an open intent after the customer changed the
// selection. The intent must belong to the caller and still accept changes.
func (s *CheckoutService) UpdatePaymentIntent(ctx context.Context, id *models.Identity, intentID string, req *ReservationRequest) (*PaymentIntentResult, error) {
	quote, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.EnsureCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	current, err := s.payments.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if customer.PaymentCustomerID == "" || current.CustomerID != customer.PaymentCustomerID {
		return nil, ErrForbidden
	}
	if !current.Updatable() {
		return nil, fmt.Errorf("%w: status %s", ErrNotUpdatable, current.Status)
	}

	pi, err := s.payments.UpdatePaymentIntent(ctx, intentID, s.intentParams(customer, customer.PaymentCustomerID, req, quote))
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentIntent("updated")

	s.logger.Info().Str("payment_intent_id", pi.ID).Int64("amount", quote.AmountDue).Msg("payment intent updated")

	clientSecret := pi.ClientSecret
	if clientSecret == "" {
		clientSecret = current.ClientSecret
	}
	return &PaymentIntentResult{PaymentIntentID: pi.ID, ClientSecret: clientSecret, Quote: quote}, nil
}

func (s *CheckoutService) prepare(ctx context.Context, req *ReservationRequest) (*pricing.Quote, error) {
	if err := s.rules.ValidateDate(req.ReservationDate, s.now()); err != nil {
		return nil, err
	}

	quote, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	blocked, err := s.catalog.IsDateBlocked(ctx, req.LocationID, req.ReservationDate)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrDateUnavailable
	}
	return quote, nil
}

func (s *CheckoutService) intentParams(c *models.Customer, pcID string, req *ReservationRequest, q *pricing.Quote) *models.PaymentIntentParams {
	var priced []pricing.Selection
	location := ""
	for _, it := range q.Items {
		switch it.Kind {
		case models.ItemKindLocation:
			location = it.Name
		case models.ItemKindExtra:
			priced = append(priced, pricing.Selection{ExtraID: it.RefID, Quantity: it.Quantity})
		}
	}

	return &models.PaymentIntentParams{
		Amount:       q.AmountDue,
		Currency:     s.currency,
		CustomerID:   pcID,
		ReceiptEmail: c.Email,
		Description:  fmt.Sprintf("Reservación %s %s", location, req.ReservationDate),
		Metadata: map[string]string{
			models.MetaLocationID:      strconv.FormatInt(req.LocationID, 10),
			models.MetaReservationDate: req.ReservationDate,
			models.MetaCustomerID:      strconv.FormatInt(c.ID, 10),
			models.MetaDeposit:         strconv.FormatBool(q.Deposit),
			models.MetaExtras:          pricing.EncodeSelections(priced),
			models.MetaTotal:           strconv.FormatInt(q.Total, 10),
		},
	}
}
