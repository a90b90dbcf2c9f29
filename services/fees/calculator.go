// Package fees computes the platform commission owed on a cash request.
//
// The computation is exact decimal arithmetic rounded half-up to whole
// currency units, so the same amount always yields the same commission.
package fees

import (
	// Go Internal Packages
	"fmt"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/shopspring/decimal"
)

// DefaultRate is the commission rate applied when none is configured.
const DefaultRate = "0.05"

type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator parses rate (e.g. "0.05"). The rate must be in [0, 1).
func NewCalculator(rate string) (*Calculator, error) {
	if rate == "" {
		rate = DefaultRate
	}
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid commission rate %q: %w", rate, err)
	}
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate %s must be in [0, 1)", r)
	}
	return &Calculator{rate: r}, nil
}

// MustCalculator is NewCalculator that panics on a bad rate. Meant for
// constants and tests.
func MustCalculator(rate string) *Calculator {
	c, err := NewCalculator(rate)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Calculator) Rate() string {
	return c.rate.String()
}

// Commission returns round_half_up(amount * rate).
func (c *Calculator) Commission(amount int64) int64 {
	// Round rounds half away from zero, which is half-up for the positive
	// amounts this is called with.
	return decimal.NewFromInt(amount).Mul(c.rate).Round(0).IntPart()
}

func (c *Calculator) Total(amount int64) int64 {
	return amount + c.Commission(amount)
}

func (c *Calculator) Breakdown(amount int64) models.FeeBreakdown {
	commission := c.Commission(amount)
	return models.FeeBreakdown{
		RequestedAmount: amount,
		CommissionRate:  c.Rate(),
		Commission:      commission,
		Total:           amount + commission,
	}
}
