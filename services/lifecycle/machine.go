// Package lifecycle owns transaction records and applies the role-gated
// transition table to them.
package lifecycle

import (
	// Go Internal Packages
	"context"
	"strings"
	"time"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	fees "coinnet/services/fees"
	utils "coinnet/utils"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMaxActivePerRequester = 2
	defaultConflictRetries       = 3
	codeAttempts                 = 3
)

type TransactionRepository interface {
	InsertTransaction(ctx context.Context, tx models.Transaction) error
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	GetTransactionByCode(ctx context.Context, code string) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx models.Transaction, expectedVersion int64) (models.Transaction, error)
	CountTransactions(ctx context.Context, f models.TransactionFilter) (int64, error)
}

// ProviderDirectory is the part of the provider directory the machine
// depends on.
type ProviderDirectory interface {
	Claim(ctx context.Context, providerID string, amount int64, fn func(models.Provider) error) error
	RecordCompletion(ctx context.Context, providerID string, amount int64) error
	MinRequestAmount() int64
}

// Publisher receives an event after every committed change. Delivery is best
// effort; a failed publish never undoes a transition.
type Publisher interface {
	Publish(ctx context.Context, event models.TransactionEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.TransactionEvent) error { return nil }

// NopPublisher drops every event.
var NopPublisher Publisher = nopPublisher{}

type Options struct {
	MaxActivePerRequester int
	ConflictRetries       int
}

func (o Options) withDefaults() Options {
	if o.MaxActivePerRequester <= 0 {
		o.MaxActivePerRequester = DefaultMaxActivePerRequester
	}
	if o.ConflictRetries <= 0 {
		o.ConflictRetries = defaultConflictRetries
	}
	return o
}

// Payload carries the action specific inputs of a transition.
type Payload struct {
	ProofReference string `json:"proof_reference"`
	Reason         string `json:"reason"`
	Notes          string `json:"notes"`
}

type Machine struct {
	Logger    *zap.Logger
	repo      TransactionRepository
	directory ProviderDirectory
	fees      *fees.Calculator
	publisher Publisher
	opts      Options
	locks     *utils.KeyedMutex
	now       func() time.Time
}

func NewMachine(logger *zap.Logger, repo TransactionRepository, directory ProviderDirectory, calc *fees.Calculator, publisher Publisher, opts Options) *Machine {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &Machine{
		Logger:    logger,
		repo:      repo,
		directory: directory,
		fees:      calc,
		publisher: publisher,
		opts:      opts.withDefaults(),
		locks:     utils.NewKeyedMutex(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Create opens a transaction from the requester to providerID. Provider
// eligibility is re-checked under the provider's lock so a provider that went
// unavailable after a search is rejected cleanly.
func (m *Machine) Create(ctx context.Context, actor models.Actor, providerID string, amount int64) (models.Transaction, error) {
	if actor.Role != models.RoleRequester {
		return models.Transaction{}, errors.ForbiddenErr(actor.ID, "request cash")
	}
	if strings.TrimSpace(providerID) == "" {
		return models.Transaction{}, errors.EmptyParamErr("provider_id")
	}
	if floor := m.directory.MinRequestAmount(); amount < floor {
		return models.Transaction{}, errors.E(errors.InvalidAmount, "amount must be at least "+utils.FormatInt(floor), nil)
	}

	unlock := m.locks.Lock("requester:" + actor.ID)
	defer unlock()

	active, err := m.repo.CountTransactions(ctx, models.TransactionFilter{UserID: actor.ID, Statuses: models.InFlightStatuses})
	if err != nil {
		return models.Transaction{}, err
	}
	if active >= int64(m.opts.MaxActivePerRequester) {
		return models.Transaction{}, errors.E(errors.LimitExceeded,
			"at most "+utils.FormatInt(int64(m.opts.MaxActivePerRequester))+" open transactions are allowed", nil)
	}

	var created models.Transaction
	err = m.directory.Claim(ctx, providerID, amount, func(p models.Provider) error {
		if p.OwnerID == actor.ID {
			return errors.ForbiddenErr(actor.ID, "request cash from their own provider")
		}
		now := m.now()
		tx := models.Transaction{
			ID:               uuid.NewString(),
			UserID:           actor.ID,
			ProviderID:       p.ID,
			ProviderOwnerID:  p.OwnerID,
			ProviderName:     p.BusinessName,
			Payout:           p.Payout,
			RequestedAmount:  amount,
			CommissionAmount: m.fees.Commission(amount),
			TotalAmount:      m.fees.Total(amount),
			Status:           models.StatusRequested,
			Timeline: []models.TimelineEntry{
				{Status: models.StatusRequested, ActorID: actor.ID, Role: actor.Role, At: now},
			},
			CreatedAt:        now,
			LastTransitionAt: now,
		}
		for attempt := 1; ; attempt++ {
			tx.Code = NewCode(now)
			err := m.repo.InsertTransaction(ctx, tx)
			if errors.Is(errors.Conflict, err) && attempt < codeAttempts {
				continue
			}
			if err != nil {
				return err
			}
			break
		}
		created = tx
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	m.Logger.Info("transaction created",
		zap.String("transaction_id", created.ID),
		zap.String("code", created.Code),
		zap.String("user_id", created.UserID),
		zap.String("provider_id", created.ProviderID),
		zap.Int64("amount", created.RequestedAmount),
	)
	m.publish(ctx, created, ActionCreate, "", actor)
	return created, nil
}

// Transition applies action to the transaction on behalf of actor. Checks run
// in a fixed order: existence, authorisation, payload, then the transition
// table. A losing concurrent writer is re-evaluated against the winner's
// state.
func (m *Machine) Transition(ctx context.Context, transactionID string, actor models.Actor, action Action, payload Payload) (models.Transaction, error) {
	rule, ok := Rules[action]
	if !ok {
		ve := errors.ValidationErrs()
		ve.Add("action", "is not a known action")
		return models.Transaction{}, errors.ValidationFailedErr(ve.Err())
	}
	payload.Reason = strings.TrimSpace(payload.Reason)
	payload.Notes = strings.TrimSpace(payload.Notes)

	unlock := m.locks.Lock(transactionID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		tx, err := m.repo.GetTransaction(ctx, transactionID)
		if err != nil {
			return models.Transaction{}, err
		}
		role, ok := partyRole(actor, tx)
		if !ok || !rule.allowsRole(role) {
			return models.Transaction{}, errors.ForbiddenErr(actor.ID, string(action)+" transaction "+tx.ID)
		}
		if err := validatePayload(action, payload); err != nil {
			return models.Transaction{}, err
		}
		if !rule.allowsFrom(tx.Status) {
			return models.Transaction{}, invalidTransition(action, role, tx)
		}

		from := tx.Status
		next := apply(tx, rule.To, actor, action, payload, m.now())
		updated, err := m.repo.UpdateTransaction(ctx, next, tx.Version)
		if errors.Is(errors.Conflict, err) && attempt < m.opts.ConflictRetries {
			m.Logger.Debug("transaction version conflict, re-evaluating",
				zap.String("transaction_id", transactionID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return models.Transaction{}, err
		}

		if updated.Status == models.StatusCompleted {
			m.recordCompletion(ctx, updated)
		}
		m.Logger.Info("transaction transitioned",
			zap.String("transaction_id", updated.ID),
			zap.String("action", string(action)),
			zap.String("from", string(from)),
			zap.String("to", string(updated.Status)),
			zap.String("actor_id", actor.ID),
		)
		m.publish(ctx, updated, action, from, actor)
		return updated, nil
	}
}

// Get returns the transaction to one of its parties or an administrator.
func (m *Machine) Get(ctx context.Context, transactionID string, actor models.Actor) (models.Transaction, error) {
	tx, err := m.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := canRead(actor, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// GetByCode looks a transaction up by its human readable code.
func (m *Machine) GetByCode(ctx context.Context, code string, actor models.Actor) (models.Transaction, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Transaction{}, errors.EmptyParamErr("code")
	}
	tx, err := m.repo.GetTransactionByCode(ctx, code)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := canRead(actor, tx); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}

// ResolveDispute lets an administrator close a disputed transaction as
// completed or cancelled. It sits outside the party transition table.
func (m *Machine) ResolveDispute(ctx context.Context, transactionID string, actor models.Actor, outcome models.Status, resolution, notes string) (models.Transaction, error) {
	resolution = strings.TrimSpace(resolution)
	notes = strings.TrimSpace(notes)

	unlock := m.locks.Lock(transactionID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		tx, err := m.repo.GetTransaction(ctx, transactionID)
		if err != nil {
			return models.Transaction{}, err
		}
		if !actor.IsAdmin() {
			return models.Transaction{}, errors.ForbiddenErr(actor.ID, "resolve disputes")
		}
		ve := errors.ValidationErrs()
		if outcome != models.StatusCompleted && outcome != models.StatusCancelled {
			ve.Add("outcome", "must be completed or cancelled")
		}
		if resolution == "" {
			ve.Add("resolution", "cannot be empty")
		}
		if err := ve.Err(); err != nil {
			return models.Transaction{}, errors.ValidationFailedErr(err)
		}
		if tx.Status != models.StatusDisputed {
			return models.Transaction{}, invalidTransition(ActionResolveDispute, actor.Role, tx)
		}

		now := m.now()
		next := tx.Clone()
		next.Status = outcome
		next.LastTransitionAt = now
		if next.Dispute == nil {
			next.Dispute = &models.Dispute{}
		}
		next.Dispute.Resolution = resolution
		next.Dispute.Notes = notes
		next.Dispute.ResolvedBy = actor.ID
		next.Dispute.ResolvedAt = &now
		next.Timeline = append(next.Timeline, models.TimelineEntry{
			Status: outcome, ActorID: actor.ID, Role: actor.Role, At: now, Notes: resolution,
		})

		updated, err := m.repo.UpdateTransaction(ctx, next, tx.Version)
		if errors.Is(errors.Conflict, err) && attempt < m.opts.ConflictRetries {
			continue
		}
		if err != nil {
			return models.Transaction{}, err
		}
		if updated.Status == models.StatusCompleted {
			m.recordCompletion(ctx, updated)
		}
		m.Logger.Info("dispute resolved",
			zap.String("transaction_id", updated.ID),
			zap.String("outcome", string(outcome)),
			zap.String("admin_id", actor.ID),
		)
		m.publish(ctx, updated, ActionResolveDispute, models.StatusDisputed, actor)
		return updated, nil
	}
}

func (m *Machine) recordCompletion(ctx context.Context, tx models.Transaction) {
	if err := m.directory.RecordCompletion(ctx, tx.ProviderID, tx.RequestedAmount); err != nil {
		m.Logger.Error("failed to record provider completion",
			zap.String("transaction_id", tx.ID),
			zap.String("provider_id", tx.ProviderID),
			zap.Error(err),
		)
	}
}

// publish runs after the commit, so it must outlive a caller that has
// already gone away.
func (m *Machine) publish(ctx context.Context, tx models.Transaction, action Action, from models.Status, actor models.Actor) {
	ctx = context.WithoutCancel(ctx)
	event := models.TransactionEvent{
		EventID:         uuid.NewString(),
		TransactionID:   tx.ID,
		Code:            tx.Code,
		UserID:          tx.UserID,
		ProviderID:      tx.ProviderID,
		Action:          string(action),
		From:            from,
		To:              tx.Status,
		ActorID:         actor.ID,
		Role:            actor.Role,
		RequestedAmount: tx.RequestedAmount,
		Version:         tx.Version,
		OccurredAt:      tx.LastTransitionAt,
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.Logger.Warn("failed to publish transaction event",
			zap.String("transaction_id", tx.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func apply(tx models.Transaction, to models.Status, actor models.Actor, action Action, payload Payload, now time.Time) models.Transaction {
	next := tx.Clone()
	next.Status = to
	next.LastTransitionAt = now

	notes := payload.Notes
	switch action {
	case ActionUploadProof:
		next.ProofReference = payload.ProofReference
	case ActionDispute:
		next.Dispute = &models.Dispute{
			Reason:   payload.Reason,
			OpenedBy: actor.ID,
			OpenedAt: now,
		}
		notes = payload.Reason
	}
	next.Timeline = append(next.Timeline, models.TimelineEntry{
		Status:  to,
		ActorID: actor.ID,
		Role:    actor.Role,
		At:      now,
		Notes:   notes,
	})
	return next
}

// partyRole reports the role under which actor is bound to tx, if any.
func partyRole(actor models.Actor, tx models.Transaction) (models.Role, bool) {
	switch {
	case actor.Role == models.RoleRequester && actor.ID == tx.UserID:
		return models.RoleRequester, true
	case actor.Role == models.RoleProvider && actor.ID == tx.ProviderOwnerID:
		return models.RoleProvider, true
	}
	return "", false
}

func canRead(actor models.Actor, tx models.Transaction) error {
	if actor.IsAdmin() {
		return nil
	}
	if _, ok := partyRole(actor, tx); ok {
		return nil
	}
	return errors.ForbiddenErr(actor.ID, "view transaction "+tx.ID)
}

func validatePayload(action Action, payload Payload) error {
	switch action {
	case ActionUploadProof:
		// The reference is stored verbatim; only blank ones are rejected.
		if strings.TrimSpace(payload.ProofReference) == "" {
			return errors.EmptyParamErr("proof_reference")
		}
	case ActionDispute:
		if payload.Reason == "" {
			return errors.EmptyParamErr("reason")
		}
	}
	return nil
}

func invalidTransition(action Action, role models.Role, current models.Transaction) error {
	te := &TransitionError{Action: action, Role: role, Current: current}
	return errors.E(errors.InvalidTransition, "invalid transition", te)
}
