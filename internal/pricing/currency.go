package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders minor units as "$1,234.50 MXN".
func FormatCurrency(amount int64, currency string) string {
	value := decimal.New(amount, -2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(value, "-") {
		sign = "-"
		value = value[1:]
	}
	intPart, decPart, _ := strings.Cut(value, ".")

	out := sign + "$" + addThousandsSeparators(intPart) + "." + decPart
	if currency != "" {
		out += " " + strings.ToUpper(currency)
	}
	return out
}

func addThousandsSeparators(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{digits[start:i]}, parts...)
	}
	return strings.Join(parts, ",")
}
