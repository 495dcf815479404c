package models

import "time"

// Extra is an add-on sold with a reservation (flowers, cake, decorations).
// When HasQuantity is false the extra is always sold as a single unit.
type Extra struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Price       int64     `yaml:"price" json:"price"`
	HasQuantity bool      `yaml:"has_quantity" json:"has_quantity"`
	SortOrder   int64     `yaml:"sort_order" json:"sort_order"`
	IsActive    bool      `yaml:"is_active" json:"is_active"`
	CreatedAt   time.Time `yaml:"-" json:"created_at"`
	UpdatedAt   time.Time `yaml:"-" json:"updated_at"`
}
