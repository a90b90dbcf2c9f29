package utils

import (
	// Go Internal Packages
	"strconv"
	"strings"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/shopspring/decimal"
)

// JoinStatuses renders statuses as a comma separated list for log fields and
// error messages.
func JoinStatuses(statuses []models.Status) string {
	strs := make([]string, len(statuses))
	for i, v := range statuses {
		strs[i] = string(v)
	}
	return strings.Join(strs, ",")
}

// FormatInt renders a currency amount for messages.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Percentage returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	pct := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole))
	f, _ := pct.Round(2).Float64()
	return f
}

// ContainsStatus reports whether s is in statuses.
func ContainsStatus(statuses []models.Status, s models.Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}
