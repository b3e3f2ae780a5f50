package domain

import (
	"fmt"
	"strings"
)

// CadenceUnit is the repeat unit of a recurring obligation.
type CadenceUnit string

const (
	CadenceDay   CadenceUnit = "day"
	CadenceWeek  CadenceUnit = "week"
	CadenceMonth CadenceUnit = "month"
	CadenceYear  CadenceUnit = "year"
)

// NewCadenceUnit validates and creates a CadenceUnit.
func NewCadenceUnit(s string) (CadenceUnit, error) {
	unit := CadenceUnit(strings.ToLower(s))

	switch unit {
	case CadenceDay, CadenceWeek, CadenceMonth, CadenceYear:
		return unit, nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidCadence, s)
	}
}

// CadenceSpec describes how an obligation repeats: every Interval Units.
// A nil *CadenceSpec on an obligation means one-off (no recurrence).
type CadenceSpec struct {
	Unit     CadenceUnit
	Interval int
}

// Validate checks the cadence invariant: a known unit and Interval >= 1.
func (c CadenceSpec) Validate() error {
	if _, err := NewCadenceUnit(string(c.Unit)); err != nil {
		return err
	}
	if c.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1, got %d", ErrInvalidCadence, c.Interval)
	}
	return nil
}

// String renders the cadence in "every N unit(s)" form.
func (c CadenceSpec) String() string {
	if c.Interval == 1 {
		return fmt.Sprintf("every %s", c.Unit)
	}
	return fmt.Sprintf("every %d %ss", c.Interval, c.Unit)
}

// Task cadence labels. Tasks express recurrence as a five-valued vocabulary
// where "once" means no recurrence and the rest are unit with interval 1.
var taskCadenceLabels = map[string]*CadenceSpec{
	"once":    nil,
	"daily":   {Unit: CadenceDay, Interval: 1},
	"weekly":  {Unit: CadenceWeek, Interval: 1},
	"monthly": {Unit: CadenceMonth, Interval: 1},
	"yearly":  {Unit: CadenceYear, Interval: 1},
}

// CadenceFromTaskLabel maps a task cadence label to a CadenceSpec.
// Returns (nil, nil) for "once".
func CadenceFromTaskLabel(s string) (*CadenceSpec, error) {
	label := strings.ToLower(s)
	spec, ok := taskCadenceLabels[label]
	if !ok {
		return nil, fmt.Errorf("%w: unknown task cadence %q", ErrInvalidCadence, s)
	}
	if spec == nil {
		return nil, nil
	}
	// Copy so callers cannot mutate the shared table entry.
	out := *spec
	return &out, nil
}

// TaskLabel maps a cadence back to the task vocabulary. A nil cadence is
// "once"; anything without a label renders in "every N unit" form.
func TaskLabel(c *CadenceSpec) string {
	if c == nil {
		return "once"
	}
	if c.Interval == 1 {
		switch c.Unit {
		case CadenceDay:
			return "daily"
		case CadenceWeek:
			return "weekly"
		case CadenceMonth:
			return "monthly"
		case CadenceYear:
			return "yearly"
		}
	}
	return c.String()
}
