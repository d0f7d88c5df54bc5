// Package datetime turns projection periods into calendar labels.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

// MonthLayout is the YYYY-MM layout used for start months and calendar labels.
const MonthLayout = constants.DateTimeLayout

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected month in %s format, got %q: %w", MonthLayout, month, err)
	}
	return t, nil
}

// ValidateMonth checks that a YYYY-MM string is a real month.
func ValidateMonth(month string) error {
	_, err := ParseMonth(month)
	return err
}

// OffsetMonth moves a YYYY-MM month by the given number of months.
func OffsetMonth(month string, months int) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return month, err
	}
	return t.AddDate(0, months, 0).Format(MonthLayout), nil
}

// PeriodLabel names the 1-based projection period. Without a start month the
// label is "Month N"; with one it is the calendar month of that period.
func PeriodLabel(startMonth string, period int) (string, error) {
	if startMonth == "" {
		return fmt.Sprintf("Month %d", period), nil
	}
	return OffsetMonth(startMonth, period-1)
}
