package service

import "errors"

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDate     = errors.New("invalid reservation date")
	ErrDateUnavailable = errors.New("date is not available")
	ErrDepositDisabled = errors.New("deposit payments are disabled")
	ErrNotUpdatable    = errors.New("payment intent can no longer be updated")
	ErrInvalidMetadata = errors.New("payment intent metadata is incomplete")
	ErrInvalidIdentity = errors.New("identity has no email")
	ErrInvalidRange    = errors.New("invalid date range")
)
