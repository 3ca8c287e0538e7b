package core

import "github.com/shopspring/decimal"

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Interval is a billing cadence as reported by the external provider.
type Interval string

// LineItem is one billed line of an external subscription. It exists only
// during a fetch cycle and is discarded once normalized.
type LineItem struct {
	UnitAmount    int64 // minor units per interval
	Quantity      int64
	Interval      Interval
	IntervalCount int64 // billing happens every IntervalCount intervals
}

// Monthly-equivalent conversion factors. Weeks use the conventional
// 4.33 weeks-per-month approximation, days a 30-day month.
var (
	weeksPerMonth = decimal.RequireFromString("4.33")
	daysPerMonth  = decimal.NewFromInt(30)
	monthsPerYear = decimal.NewFromInt(12)
)

func (i Interval) Validate() error {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return nil
	default:
		return ErrInvalidInterval
	}
}

// MonthlyCents normalizes a line item to its monthly-equivalent amount in
// minor units, rounding half-up to a whole cent. A weekly 100-cent item
// normalizes to 433, a yearly 1200-cent item to 100.
func MonthlyCents(item LineItem) (int64, error) {
	if err := item.Interval.Validate(); err != nil {
		return 0, err
	}
	if item.Quantity <= 0 || item.IntervalCount <= 0 {
		return 0, ErrInvalidQuantity
	}

	raw := decimal.NewFromInt(item.UnitAmount).Mul(decimal.NewFromInt(item.Quantity))
	count := decimal.NewFromInt(item.IntervalCount)

	var monthly decimal.Decimal
	switch item.Interval {
	case IntervalMonth:
		monthly = raw.Div(count)
	case IntervalYear:
		monthly = raw.Div(monthsPerYear).Div(count)
	case IntervalWeek:
		monthly = raw.Mul(weeksPerMonth).Div(count)
	case IntervalDay:
		monthly = raw.Mul(daysPerMonth).Div(count)
	}

	// Half-up to whole cents; provider amounts are non-negative so
	// round-half-away-from-zero is half-up here.
	return monthly.Round(0).IntPart(), nil
}
