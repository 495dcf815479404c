package models

import "time"

// Location is a bookable table setup. Price is in minor currency units.
type Location struct {
	ID           int64     `yaml:"id" json:"id"`
	Slug         string    `yaml:"slug" json:"slug"`
	Name         string    `yaml:"name" json:"name"`
	Description  string    `yaml:"description" json:"description"`
	Price        int64     `yaml:"price" json:"price"`
	Capacity     int64     `yaml:"capacity" json:"capacity"`
	SortOrder    int64     `yaml:"sort_order" json:"sort_order"`
	IsActive     bool      `yaml:"is_active" json:"is_active"`
	BlockedDates []string  `yaml:"-" json:"blocked_dates"`
	CreatedAt    time.Time `yaml:"-" json:"created_at"`
	UpdatedAt    time.Time `yaml:"-" json:"updated_at"`
}

// IsBlocked reports whether date (YYYY-MM-DD) is already taken.
func (l *Location) IsBlocked(date string) bool {
	for _, d := range l.BlockedDates {
		if d == date {
			return true
		}
	}
	return false
}
