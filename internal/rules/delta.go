// internal/rules/delta.go
package rules

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidDelta indicates a point delta outside its range or with more than two decimals.
var ErrInvalidDelta = errors.New("invalid delta")

// MaxDelta bounds both rule deltas and the magnitude of manual adjustments.
var MaxDelta = decimal.RequireFromString("99.9")

// DeltaPlaces is the number of decimal digits a delta may carry.
const DeltaPlaces = 2

// ValidateRuleDelta checks a RuleItem delta: within [0, 99.9], at most two decimals.
func ValidateRuleDelta(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(MaxDelta) {
		return fmt.Errorf("%w: %s is outside [0, %s]", ErrInvalidDelta, d, MaxDelta)
	}
	return checkPlaces(d)
}

// ValidateAdjustment checks a manual ExtraPoints delta: signed, |d| <= 99.9, at most two decimals.
func ValidateAdjustment(d decimal.Decimal) error {
	if d.Abs().GreaterThan(MaxDelta) {
		return fmt.Errorf("%w: |%s| exceeds %s", ErrInvalidDelta, d, MaxDelta)
	}
	return checkPlaces(d)
}

func checkPlaces(d decimal.Decimal) error {
	if !d.Equal(d.Round(DeltaPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidDelta, d, DeltaPlaces)
	}
	return nil
}
