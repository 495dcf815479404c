package models

import "time"

type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	Status          string      `json:"status"` // paid, partially_paid, conflict, cancelled
	Items           []OrderItem `json:"items"`
	Total           int64       `json:"total"`
	AmountPaid      int64       `json:"amount_paid"`
	AmountPending   int64       `json:"amount_pending"`
	Currency        string      `json:"currency"`
	ReservationDate string      `json:"reservation_date"`
	CustomerID      int64       `json:"customer_id"`
	LocationID      int64       `json:"location_id"`
	PaymentIntentID string      `json:"payment_intent_id"`
	ReminderSentAt  *time.Time  `json:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem keeps the price at purchase so later catalog changes do not alter
// existing orders.
type OrderItem struct {
	Kind     string `json:"kind"` // location, extra
	RefID    int64  `json:"ref_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

// Subtotal returns price times quantity for the line.
func (i OrderItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// ItemsTotal sums the order lines.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// OrderWithCustomer is the projection used by reminder sweeps and exports.
type OrderWithCustomer struct {
	Order
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	LocationName  string `json:"location_name"`
}

// DayAvailability is a per-day view of a location calendar.
type DayAvailability struct {
	Date    string `json:"date"`
	Blocked bool   `json:"blocked"`
}
