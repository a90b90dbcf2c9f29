package fees

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionScenario(t *testing.T) {
	c := MustCalculator(DefaultRate)

	assert.Equal(t, int64(500), c.Commission(10000))
	assert.Equal(t, int64(10500), c.Total(10000))
}

func TestCommissionRoundsHalfUp(t *testing.T) {
	c := MustCalculator("0.05")

	tests := []struct {
		amount     int64
		commission int64
	}{
		{amount: 1000, commission: 50},
		{amount: 1010, commission: 51}, // 50.5
		{amount: 1009, commission: 50}, // 50.45
		{amount: 1029, commission: 51}, // 51.45
		{amount: 1030, commission: 52}, // 51.5
		{amount: 99999, commission: 5000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.commission, c.Commission(tt.amount), "amount %d", tt.amount)
	}
}

func TestTotalIsAmountPlusCommission(t *testing.T) {
	c := MustCalculator(DefaultRate)

	for amount := int64(1000); amount <= 250000; amount += 137 {
		first := c.Commission(amount)
		assert.Equal(t, first, c.Commission(amount))
		assert.Equal(t, amount+first, c.Total(amount))

		b := c.Breakdown(amount)
		assert.Equal(t, b.RequestedAmount+b.Commission, b.Total)
	}
}

func TestNewCalculatorRejectsBadRates(t *testing.T) {
	for _, rate := range []string{"abc", "-0.01", "1", "1.5"} {
		_, err := NewCalculator(rate)
		assert.Error(t, err, rate)
	}

	c, err := NewCalculator("")
	require.NoError(t, err)
	assert.Equal(t, "0.05", c.Rate())
}
