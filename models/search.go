package models

type SearchQuery struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Amount   int64   `json:"amount"`
	RadiusKm float64 `json:"radius_km"`
}

// ProviderSummary is the public view of a provider in search results.
type ProviderSummary struct {
	ID                 string             `json:"id"`
	BusinessName       string             `json:"business_name"`
	Address            string             `json:"address,omitempty"`
	Description        string             `json:"description,omitempty"`
	Location           Coordinate         `json:"location"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	DeclaredLiquidity  *int64             `json:"declared_liquidity,omitempty"`
	MinAmount          int64              `json:"min_amount"`
	MaxAmount          int64              `json:"max_amount"`
	ReputationScore    float64            `json:"reputation_score"`
	TotalTransactions  int64              `json:"total_transactions"`
}

type SearchResult struct {
	Provider   ProviderSummary `json:"provider"`
	DistanceKm float64         `json:"distance_km"`
	Fees       FeeBreakdown    `json:"fees"`
}

func (p Provider) Summary() ProviderSummary {
	return ProviderSummary{
		ID:                 p.ID,
		BusinessName:       p.BusinessName,
		Address:            p.Address,
		Description:        p.Description,
		Location:           p.Location,
		VerificationStatus: p.VerificationStatus,
		DeclaredLiquidity:  p.DeclaredLiquidity,
		MinAmount:          p.MinAmount,
		MaxAmount:          p.MaxAmount,
		ReputationScore:    p.ReputationScore,
		TotalTransactions:  p.TotalTransactions,
	}
}
