package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var (
	// ErrProvider marks failures reported by the payment provider.
	ErrProvider = errors.New("payment provider error")
	// ErrNotFound is returned when the provider has no such object.
	ErrNotFound = errors.New("payment object not found")
)

// Gateway talks to Stripe.
type Gateway struct {
	sc       *client.API
	currency string
	logger   *zerolog.Logger
}

func NewGateway(cfg config.StripeConfig, logger *zerolog.Logger) *Gateway {
	return NewGatewayWithBackends(cfg, nil, logger)
}

// NewGatewayWithBackends lets callers point the client at a different API host.
func NewGatewayWithBackends(cfg config.StripeConfig, backends *stripe.Backends, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gateway{
		sc:       client.New(cfg.SecretKey, backends),
		currency: cfg.Currency,
		logger:   logger,
	}
}

func (g *Gateway) CreateCustomer(ctx context.Context, c *models.Customer) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(c.Email),
	}
	if c.Name != "" {
		params.Name = stripe.String(c.Name)
	}
	if c.Phone != "" {
		params.Phone = stripe.String(c.Phone)
	}
	params.Context = ctx
	params.AddMetadata(models.MetaCustomerID, fmt.Sprint(c.ID))

	cus, err := g.sc.Customers.New(params)
	if err != nil {
		return "", providerError("create customer", err)
	}
	g.logger.Info().Str("payment_customer_id", cus.ID).Int64("customer_id", c.ID).Msg("payment customer created")
	return cus.ID, nil
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, p *models.PaymentIntentParams) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(g.currencyOf(p)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	applyIntentParams(params, p)
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, providerError("create payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) UpdatePaymentIntent(ctx context.Context, id string, p *models.PaymentIntentParams) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(g.currencyOf(p)),
	}
	applyIntentParams(params, p)
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Update(id, params)
	if err != nil {
		return nil, providerError("update payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, providerError("get payment intent", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) currencyOf(p *models.PaymentIntentParams) string {
	if p.Currency != "" {
		return p.Currency
	}
	return g.currency
}

func applyIntentParams(params *stripe.PaymentIntentParams, p *models.PaymentIntentParams) {
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
}

func toIntent(pi *stripe.PaymentIntent) *models.PaymentIntent {
	out := &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func providerError(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		if serr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s: %s", ErrNotFound, op, serr.Msg)
		}
		return fmt.Errorf("%w: %s: %s (%s)", ErrProvider, op, serr.Msg, serr.Code)
	}
	return fmt.Errorf("%w: %s: %v", ErrProvider, op, err)
}
