// Package mathutil is the decimal arithmetic core shared by every analyzer.
//
// All monetary and percentage values are github.com/shopspring/decimal values.
// Addition, subtraction and multiplication are exact. Division is the one
// lossy operation and always rounds to constants.DivisionScale fractional
// digits, so the same inputs produce the same digits on every run. Native
// floats appear only at the input boundary (FromFloat) and the output boundary
// (ToNumber).
package mathutil

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	// Zero is the additive identity.
	Zero = decimal.Zero

	// One is the multiplicative identity.
	One = decimal.NewFromInt(1)

	// Hundred converts ratios to percentages.
	Hundred = decimal.NewFromInt(constants.PercentageMultiplier)

	// MonthsPerYear as a decimal.
	MonthsPerYear = decimal.NewFromInt(constants.MonthsPerYear)
)

// Parse converts a caller-supplied number into a decimal. Thousands separators
// and surrounding whitespace are tolerated; anything else is an error.
func Parse(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return Zero, fmt.Errorf("empty decimal value")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero, fmt.Errorf("invalid decimal value %q: %w", value, err)
	}
	return d, nil
}

// MustParse is Parse for literals that are known to be valid.
func MustParse(value string) decimal.Decimal {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// FromFloat converts a float at the input boundary using its shortest decimal
// representation, so 0.1 becomes exactly 0.1.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// FromInt converts an integer.
func FromInt(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// ToNumber converts a decimal to a float64 at the output boundary.
func ToNumber(value decimal.Decimal) float64 {
	return value.InexactFloat64()
}

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(constants.DisplayScale)
}

// Sum adds any number of values exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Div divides numerator by denominator using the financial scale. Callers must
// guard zero denominators; use SafeDiv when the denominator comes from input.
func Div(numerator, denominator decimal.Decimal) decimal.Decimal {
	return numerator.DivRound(denominator, constants.DivisionScale)
}

// SafeDiv divides and reports whether the division was defined. A zero
// denominator yields zero and false.
func SafeDiv(numerator, denominator decimal.Decimal) (decimal.Decimal, bool) {
	if denominator.IsZero() {
		return Zero, false
	}
	return Div(numerator, denominator), true
}

// Percentage returns part/whole × 100, or zero and false when whole is zero.
func Percentage(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	ratio, ok := SafeDiv(part, whole)
	if !ok {
		return Zero, false
	}
	return ratio.Mul(Hundred), true
}

// ApplyPercentage applies a percentage to a value, e.g. 200 at 25 is 50.
func ApplyPercentage(value, percentage decimal.Decimal) decimal.Decimal {
	return Div(value.Mul(percentage), Hundred)
}

// Pow raises base to an integer exponent. Non-negative exponents are exact;
// negative exponents cost one division.
func Pow(base decimal.Decimal, exponent int) decimal.Decimal {
	if exponent < 0 {
		return Div(One, Pow(base, -exponent))
	}
	result := One
	factor := base
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(factor)
		}
		exponent >>= 1
		if exponent > 0 {
			factor = factor.Mul(factor)
		}
	}
	return result
}

// Max returns the larger of two values.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of two values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// NonNegative clamps negative values to zero.
func NonNegative(value decimal.Decimal) decimal.Decimal {
	return Max(value, Zero)
}
