package models

import "time"

type Status string

const (
	StatusRequested     Status = "requested"
	StatusAccepted      Status = "accepted"
	StatusSinpeSent     Status = "sinpe_sent"
	StatusProofUploaded Status = "proof_uploaded"
	StatusVerified      Status = "verified"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusDisputed      Status = "disputed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusRequested,
	StatusAccepted,
	StatusSinpeSent,
	StatusProofUploaded,
	StatusVerified,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
}

// Terminal reports whether no further transition is possible. Disputed is
// final for the requester/provider table; only an administrator moves it on.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDisputed
}

// Closed reports whether the transaction left the provider's work queue.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ActiveStatuses are the non-terminal statuses a party may still cancel from.
var ActiveStatuses = []Status{
	StatusRequested,
	StatusAccepted,
	StatusSinpeSent,
	StatusProofUploaded,
	StatusVerified,
}

// InFlightStatuses count against a requester's limit of concurrently open
// transactions. A verified transaction only waits for the provider to hand
// over the cash, so it no longer blocks a new request.
var InFlightStatuses = []Status{
	StatusRequested,
	StatusAccepted,
	StatusSinpeSent,
	StatusProofUploaded,
}

// OpenStatuses are the statuses shown in a provider's pending queue.
var OpenStatuses = []Status{
	StatusRequested,
	StatusAccepted,
	StatusSinpeSent,
	StatusProofUploaded,
	StatusVerified,
	StatusDisputed,
}

type TimelineEntry struct {
	Status  Status    `json:"status" bson:"status"`
	ActorID string    `json:"actor_id" bson:"actor_id"`
	Role    Role      `json:"role" bson:"role"`
	At      time.Time `json:"at" bson:"at"`
	Notes   string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

type Dispute struct {
	Reason     string     `json:"reason" bson:"reason"`
	OpenedBy   string     `json:"opened_by" bson:"opened_by"`
	OpenedAt   time.Time  `json:"opened_at" bson:"opened_at"`
	Resolution string     `json:"resolution,omitempty" bson:"resolution,omitempty"`
	Notes      string     `json:"notes,omitempty" bson:"notes,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

type Transaction struct {
	ID               string            `json:"id" bson:"_id"`
	Code             string            `json:"code" bson:"code"`
	UserID           string            `json:"user_id" bson:"user_id"`
	ProviderID       string            `json:"provider_id" bson:"provider_id"`
	ProviderOwnerID  string            `json:"provider_owner_id" bson:"provider_owner_id"`
	ProviderName     string            `json:"provider_name" bson:"provider_name"`
	Payout           PayoutDestination `json:"payout" bson:"payout"`
	RequestedAmount  int64             `json:"requested_amount" bson:"requested_amount"`
	CommissionAmount int64             `json:"commission_amount" bson:"commission_amount"`
	TotalAmount      int64             `json:"total_amount" bson:"total_amount"`
	Status           Status            `json:"status" bson:"status"`
	ProofReference   string            `json:"proof_reference,omitempty" bson:"proof_reference,omitempty"`
	Dispute          *Dispute          `json:"dispute,omitempty" bson:"dispute,omitempty"`
	Timeline         []TimelineEntry   `json:"timeline" bson:"timeline"`
	Version          int64             `json:"version" bson:"version"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	LastTransitionAt time.Time         `json:"last_transition_at" bson:"last_transition_at"`
}

// Clone returns a deep copy so that stored records never share slices or
// pointers with values handed to callers.
func (t Transaction) Clone() Transaction {
	c := t
	if t.Timeline != nil {
		c.Timeline = make([]TimelineEntry, len(t.Timeline))
		copy(c.Timeline, t.Timeline)
	}
	if t.Dispute != nil {
		d := *t.Dispute
		if t.Dispute.ResolvedAt != nil {
			at := *t.Dispute.ResolvedAt
			d.ResolvedAt = &at
		}
		c.Dispute = &d
	}
	return c
}

type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// TransactionFilter selects transactions. Zero values match everything.
type TransactionFilter struct {
	UserID     string
	ProviderID string
	Statuses   []Status
	Sort       SortOrder
	Limit      int
}

// TransactionStats is the transaction side of the admin metrics.
type TransactionStats struct {
	Total           int64            `json:"total"`
	ByStatus        map[Status]int64 `json:"by_status"`
	RequestedVolume int64            `json:"requested_volume"`
	CommissionTotal int64            `json:"commission_total"`
}

// AdminMetrics aggregates both stores for the administrator dashboard.
type AdminMetrics struct {
	Providers      ProviderStats    `json:"providers"`
	Transactions   TransactionStats `json:"transactions"`
	DisputeRatePct float64          `json:"dispute_rate_pct"`
}
