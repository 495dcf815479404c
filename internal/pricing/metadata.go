package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeSelections renders extras as "id:qty,id:qty" for payment metadata,
// which only holds short strings.
func EncodeSelections(selections []Selection) string {
	parts := make([]string, 0, len(selections))
	for _, s := range selections {
		parts = append(parts, fmt.Sprintf("%d:%d", s.ExtraID, s.Quantity))
	}
	return strings.Join(parts, ",")
}

// ParseSelections is the inverse of EncodeSelections.
func ParseSelections(raw string) ([]Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]Selection, 0, len(parts))
	for _, p := range parts {
		idStr, qtyStr, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok {
			return nil, fmt.Errorf("invalid extra entry %q", p)
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid extra id %q: %w", idStr, err)
		}
		qty, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid extra quantity %q: %w", qtyStr, err)
		}
		out = append(out, Selection{ExtraID: id, Quantity: qty})
	}
	return out, nil
}
