package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriods is returned when a projection is asked for fewer than one period.
	ErrInvalidPeriods = errors.New("period count must be at least 1")

	// ErrInvalidScheduleEntry is returned for capital expense entries outside the projection calendar.
	ErrInvalidScheduleEntry = errors.New("invalid capital expense schedule entry")

	// ErrInvalidStartMonth is returned when a projection start month cannot be parsed.
	ErrInvalidStartMonth = errors.New("invalid projection start month")

	// ErrInvalidCategoryType is returned for budget items that are neither revenue nor expense.
	ErrInvalidCategoryType = errors.New("invalid budget category type")

	// ErrInvalidCriticality is returned for budget items without a known criticality.
	ErrInvalidCriticality = errors.New("invalid budget criticality")

	// ErrEmptyScenarioName is returned for unnamed scenarios.
	ErrEmptyScenarioName = errors.New("scenario name cannot be empty")
)

// InputError locates a malformed input record. It unwraps to one of the
// sentinel errors above.
type InputError struct {
	Field string
	Index int
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Field, e.Index, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(field string, index int, err error) error {
	return &InputError{Field: field, Index: index, Err: err}
}
