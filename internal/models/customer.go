package models

import "time"

type Customer struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	AuthID            string    `json:"auth_id"`             // subject issued by the identity provider
	PaymentCustomerID string    `json:"payment_customer_id"` // Stripe customer id
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
