// Package pricing computes reservation totals from current catalog prices.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 100")
)

// MaxQuantity bounds a single extra line, after merging repeats.
const MaxQuantity = 100

// Selection is an extra requested by the customer.
type Selection struct {
	ExtraID  int64 `json:"extra_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"gte=0,lte=100"`
}

// Quote is the server-side price of a reservation. Items hold the prices used,
// AmountDue is what is charged now and AmountPending is left for the day of the
// reservation.
type Quote struct {
	Items         []models.OrderItem `json:"items"`
	Total         int64              `json:"total"`
	AmountDue     int64              `json:"amount_due"`
	AmountPending int64              `json:"amount_pending"`
	Deposit       bool               `json:"deposit"`
}

// Calculate prices a location plus extras. extras must contain the current
// catalog entry for every selected id; inactive entries count as missing.
func Calculate(location *models.Location, selections []Selection, extras map[int64]*models.Extra, deposit bool) (*Quote, error) {
	if location == nil || !location.IsActive {
		return nil, fmt.Errorf("%w: location", ErrItemNotFound)
	}

	items := []models.OrderItem{{
		Kind:     models.ItemKindLocation,
		RefID:    location.ID,
		Name:     location.Name,
		Quantity: 1,
		Price:    location.Price,
	}}

	merged, err := MergeSelections(selections)
	if err != nil {
		return nil, err
	}

	for _, sel := range merged {
		extra, ok := extras[sel.ExtraID]
		if !ok || extra == nil || !extra.IsActive {
			return nil, fmt.Errorf("%w: extra %d", ErrItemNotFound, sel.ExtraID)
		}
		qty := sel.Quantity
		if !extra.HasQuantity {
			qty = 1
		}
		items = append(items, models.OrderItem{
			Kind:     models.ItemKindExtra,
			RefID:    extra.ID,
			Name:     extra.Name,
			Quantity: qty,
			Price:    extra.Price,
		})
	}

	var total int64
	for _, it := range items {
		if it.Price > 0 && it.Quantity > (math.MaxInt64-total)/it.Price {
			return nil, fmt.Errorf("%w: total of %s overflows", ErrInvalidQuantity, it.Name)
		}
		total += it.Subtotal()
	}

	due, pending := Split(total, deposit)
	return &Quote{
		Items:         items,
		Total:         total,
		AmountDue:     due,
		AmountPending: pending,
		Deposit:       deposit,
	}, nil
}

// Split divides total into the amount charged now and the remaining balance.
// A deposit halves the total; the odd minor unit stays pending.
func Split(total int64, deposit bool) (due, pending int64) {
	if !deposit {
		return total, 0
	}
	due = total / 2
	return due, total - due
}

// MergeSelections folds repeated extras into one line, keeping the first
// position. A zero quantity is read as one; a line above MaxQuantity is
// rejected.
func MergeSelections(selections []Selection) ([]Selection, error) {
	out := make([]Selection, 0, len(selections))
	index := make(map[int64]int, len(selections))
	for _, sel := range selections {
		qty := sel.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 || qty > MaxQuantity {
			return nil, fmt.Errorf("%w: extra %d", ErrInvalidQuantity, sel.ExtraID)
		}
		if i, ok := index[sel.ExtraID]; ok {
			if out[i].Quantity+qty > MaxQuantity {
				return nil, fmt.Errorf("%w: extra %d", ErrInvalidQuantity, sel.ExtraID)
			}
			out[i].Quantity += qty
			continue
		}
		index[sel.ExtraID] = len(out)
		out = append(out, Selection{ExtraID: sel.ExtraID, Quantity: qty})
	}
	return out, nil
}
