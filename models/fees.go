package models

// FeeBreakdown is the fee calculator's answer for one requested amount.
type FeeBreakdown struct {
	RequestedAmount int64  `json:"requested_amount"`
	CommissionRate  string `json:"commission_rate"`
	Commission      int64  `json:"commission"`
	Total           int64  `json:"total"`
}
