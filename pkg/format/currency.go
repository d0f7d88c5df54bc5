// Package format renders decimal values for display. It is only used at the
// output boundary; analyzers never format their own values.
package format

import (
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount decimal.Decimal) string {
	formatted := formatPositive(amount.Abs())
	if amount.Round(constants.DisplayScale).IsNegative() {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.Round(constants.DisplayScale).IsNegative() {
		sign = "-"
	}
	return sign + formatPositive(amount.Abs())
}

// Percent renders a value that is already in percent, e.g. 12.5 as "12.50%".
func Percent(value decimal.Decimal) string {
	return value.StringFixed(constants.DisplayScale) + "%"
}

// Ratio renders a plain ratio with two decimals, e.g. "1.20".
func Ratio(value decimal.Decimal) string {
	return value.StringFixed(constants.DisplayScale)
}

func formatPositive(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.DisplayScale)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
