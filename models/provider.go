package models

import "time"

type VerificationStatus string

const (
	VerificationPendingReview VerificationStatus = "pending_review"
	VerificationActive        VerificationStatus = "active"
	VerificationSuspended     VerificationStatus = "suspended"
)

// VerificationStatuses lists every status in display order.
var VerificationStatuses = []VerificationStatus{
	VerificationPendingReview,
	VerificationActive,
	VerificationSuspended,
}

type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// PayoutDestination is where requesters send the transfer. Both fields are
// opaque to the core.
type PayoutDestination struct {
	AccountNumber string `json:"account_number" bson:"account_number"`
	HolderName    string `json:"holder_name" bson:"holder_name"`
}

type Provider struct {
	ID                 string             `json:"id" bson:"_id"`
	OwnerID            string             `json:"owner_id" bson:"owner_id"`
	BusinessName       string             `json:"business_name" bson:"business_name"`
	Payout             PayoutDestination  `json:"payout" bson:"payout"`
	BankEmail          string             `json:"bank_email,omitempty" bson:"bank_email,omitempty"`
	Address            string             `json:"address,omitempty" bson:"address,omitempty"`
	Description        string             `json:"description,omitempty" bson:"description,omitempty"`
	Location           Coordinate         `json:"location" bson:"location"`
	VerificationStatus VerificationStatus `json:"verification_status" bson:"verification_status"`
	IsAvailable        bool               `json:"is_available" bson:"is_available"`
	DeclaredLiquidity  *int64             `json:"declared_liquidity,omitempty" bson:"declared_liquidity,omitempty"`
	MinAmount          int64              `json:"min_amount" bson:"min_amount"`
	MaxAmount          int64              `json:"max_amount" bson:"max_amount"`
	ReputationScore    float64            `json:"reputation_score" bson:"reputation_score"`
	TotalTransactions  int64              `json:"total_transactions" bson:"total_transactions"`
	TotalVolume        int64              `json:"total_volume" bson:"total_volume"`
	Version            int64              `json:"version" bson:"version"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// Accepts reports whether amount is within the provider's bounds.
func (p Provider) Accepts(amount int64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

// Matchable reports whether the provider may currently be offered to requesters.
func (p Provider) Matchable() bool {
	return p.IsAvailable && p.VerificationStatus != VerificationSuspended
}

// ProviderRegistration is the onboarding payload of a business.
type ProviderRegistration struct {
	BusinessName string            `json:"business_name"`
	Payout       PayoutDestination `json:"payout"`
	BankEmail    string            `json:"bank_email"`
	Address      string            `json:"address"`
	Description  string            `json:"description"`
	Location     Coordinate        `json:"location"`
	MinAmount    int64             `json:"min_amount"`
	MaxAmount    int64             `json:"max_amount"`
}

// ProviderUpdate is a partial profile update; nil fields are left untouched.
type ProviderUpdate struct {
	BusinessName *string            `json:"business_name,omitempty"`
	Payout       *PayoutDestination `json:"payout,omitempty"`
	BankEmail    *string            `json:"bank_email,omitempty"`
	Address      *string            `json:"address,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Lat          *float64           `json:"lat,omitempty"`
	Lng          *float64           `json:"lng,omitempty"`
	MinAmount    *int64             `json:"min_amount,omitempty"`
	MaxAmount    *int64             `json:"max_amount,omitempty"`
}

// ProviderFilter selects providers for listings. Zero values match everything.
type ProviderFilter struct {
	OwnerID            string
	PayoutAccount      string
	VerificationStatus VerificationStatus
	Limit              int
}

// ProviderStats is the provider side of the admin metrics.
type ProviderStats struct {
	Total     int64                        `json:"total"`
	Available int64                        `json:"available"`
	ByStatus  map[VerificationStatus]int64 `json:"by_status"`
}
