package service

import (
	"fmt"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
)

// BookingRules bound which reservation dates may be sold.
type BookingRules struct {
	DepositEnabled bool
	MinAdvanceDays int
	MaxAdvanceDays int
	Location       *time.Location
}

func (r BookingRules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Today returns the business-local calendar date of now.
func (r BookingRules) Today(now time.Time) time.Time {
	y, m, d := now.In(r.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.location())
}

// ValidateDate checks that date is a YYYY-MM-DD day between today+min and
// today+max advance days.
func (r BookingRules) ValidateDate(date string, now time.Time) error {
	day, err := time.ParseInLocation(models.DateLayout, date, r.location())
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	today := r.Today(now)
	if earliest := today.AddDate(0, 0, r.MinAdvanceDays); day.Before(earliest) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidDate, date, earliest.Format(models.DateLayout))
	}
	if r.MaxAdvanceDays > 0 {
		if latest := today.AddDate(0, 0, r.MaxAdvanceDays); day.After(latest) {
			return fmt.Errorf("%w: %s is after %s", ErrInvalidDate, date, latest.Format(models.DateLayout))
		}
	}
	return nil
}
