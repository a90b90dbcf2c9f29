package models

import "time"

type Record struct {
	Key   []byte
	Value []byte
	Topic string
}

// TransactionEvent is emitted after every committed state change of a
// transaction, keyed by transaction id.
type TransactionEvent struct {
	EventID         string    `json:"event_id" bson:"_id"`
	TransactionID   string    `json:"transaction_id" bson:"transaction_id"`
	Code            string    `json:"code" bson:"code"`
	UserID          string    `json:"user_id" bson:"user_id"`
	ProviderID      string    `json:"provider_id" bson:"provider_id"`
	Action          string    `json:"action" bson:"action"`
	From            Status    `json:"from,omitempty" bson:"from,omitempty"`
	To              Status    `json:"to" bson:"to"`
	ActorID         string    `json:"actor_id" bson:"actor_id"`
	Role            Role      `json:"role" bson:"role"`
	RequestedAmount int64     `json:"requested_amount" bson:"requested_amount"`
	Version         int64     `json:"version" bson:"version"`
	OccurredAt      time.Time `json:"occurred_at" bson:"occurred_at"`
}

// DeadLetter is a record parked for manual inspection, either because it
// could not be published or because a consumer could not process it.
type DeadLetter struct {
	Key      string    `json:"key"`
	Value    []byte    `json:"value"`
	Topic    string    `json:"topic"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}
