package models

// Metadata keys stored on payment intents. The webhook reconstructs the
// reservation from them, so they must stay stable.
const (
	MetaLocationID      = "location_id"
	MetaReservationDate = "reservation_date"
	MetaCustomerID      = "customer_id"
	MetaDeposit         = "deposit"
	MetaExtras          = "extras"
	MetaTotal           = "total"
)

// Payment intent states in which the amount may still change.
var updatableIntentStatuses = map[string]bool{
	"requires_payment_method": true,
	"requires_confirmation":   true,
	"requires_action":         true,
}

// PaymentIntent is the provider-neutral view of a card payment.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	CustomerID   string            `json:"customer_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (p *PaymentIntent) Updatable() bool {
	return updatableIntentStatuses[p.Status]
}

// PaymentIntentParams carries what is needed to create or update an intent.
type PaymentIntentParams struct {
	Amount       int64
	Currency     string
	CustomerID   string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// Identity is the authenticated end user as asserted by the identity provider.
type Identity struct {
	AuthID string `json:"auth_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}
