package models

const (
	StatusPaid          = "paid"
	StatusPartiallyPaid = "partially_paid"
	StatusConflict      = "conflict"
	StatusCancelled     = "cancelled"
)

const (
	ItemKindLocation = "location"
	ItemKindExtra    = "extra"
)

// DateLayout is the calendar format used for reservation dates.
const DateLayout = "2006-01-02"

const (
	// DefaultCurrency ISO code used when the config omits one
	DefaultCurrency = "mxn"

	// DefaultMaxAdvanceDays how far ahead a reservation can be made
	DefaultMaxAdvanceDays = 180

	// DefaultReminderLeadDays days before the reservation the reminder is sent
	DefaultReminderLeadDays = 1

	// DefaultAvailabilityDays window returned by the availability endpoint
	DefaultAvailabilityDays = 31

	// MaxAvailabilityDays upper bound for the availability window
	MaxAvailabilityDays = 366

	// CatalogCacheTTL lifetime of cached catalog listings in seconds
	CatalogCacheTTL = 10 * 60

	// ProcessedEventTTL how long webhook event ids are remembered, in seconds
	ProcessedEventTTL = 72 * 60 * 60
)
