package finance

import "github.com/shopspring/decimal"

// Degraded lists the output fields that fell back to zero because their
// denominator was zero. Field names match the JSON names of the result.
type Degraded []string

// Has reports whether the named field was degraded.
func (d Degraded) Has(field string) bool {
	for _, f := range d {
		if f == field {
			return true
		}
	}
	return false
}

func (d *Degraded) mark(field string) {
	if !d.Has(field) {
		*d = append(*d, field)
	}
}

// guard records field as degraded when ok is false and passes value through.
func (d *Degraded) guard(field string, value decimal.Decimal, ok bool) decimal.Decimal {
	if !ok {
		d.mark(field)
	}
	return value
}
