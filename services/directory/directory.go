// Package directory owns provider records and answers "which providers can
// serve amount A near point P".
package directory

import (
	// Go Internal Packages
	"context"
	"strings"
	"time"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	fees "coinnet/services/fees"
	geo "coinnet/services/geo"
	utils "coinnet/utils"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMinRequestAmount = 1000
	DefaultRadiusKm         = 5.0
	DefaultMaxResults       = 20
	defaultReputation       = 5.0
	defaultConflictRetries  = 3
)

// MaxProviderAmount caps provider bounds so fee totals stay far from int64
// overflow.
const MaxProviderAmount = 1_000_000_000

type ProviderRepository interface {
	InsertProvider(ctx context.Context, p models.Provider) error
	GetProvider(ctx context.Context, id string) (models.Provider, error)
	GetProviders(ctx context.Context, ids []string) ([]models.Provider, error)
	UpdateProvider(ctx context.Context, p models.Provider, expectedVersion int64) (models.Provider, error)
	ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.Provider, error)
}

type Options struct {
	// MinRequestAmount is the product floor for any request.
	MinRequestAmount int64
	DefaultRadiusKm  float64
	MaxRadiusKm      float64
	MaxResults       int
	ConflictRetries  int
}

func (o Options) withDefaults() Options {
	if o.MinRequestAmount <= 0 {
		o.MinRequestAmount = DefaultMinRequestAmount
	}
	if o.DefaultRadiusKm <= 0 {
		o.DefaultRadiusKm = DefaultRadiusKm
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.ConflictRetries <= 0 {
		o.ConflictRetries = defaultConflictRetries
	}
	return o
}

type Directory struct {
	Logger *zap.Logger
	repo   ProviderRepository
	index  geo.Index
	fees   *fees.Calculator
	opts   Options
	locks  *utils.KeyedMutex
	now    func() time.Time
}

func NewDirectory(logger *zap.Logger, repo ProviderRepository, index geo.Index, calc *fees.Calculator, opts Options) *Directory {
	return &Directory{
		Logger: logger,
		repo:   repo,
		index:  index,
		fees:   calc,
		opts:   opts.withDefaults(),
		locks:  utils.NewKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (d *Directory) WithClock(now func() time.Time) *Directory {
	d.now = now
	return d
}

// MinRequestAmount returns the configured product floor.
func (d *Directory) MinRequestAmount() int64 {
	return d.opts.MinRequestAmount
}

// Register stores a new provider profile for the calling business. The
// profile starts in pending_review and unavailable.
func (d *Directory) Register(ctx context.Context, actor models.Actor, reg models.ProviderRegistration) (models.Provider, error) {
	if actor.Role != models.RoleProvider {
		return models.Provider{}, errors.ForbiddenErr(actor.ID, "register a provider profile")
	}

	reg.BusinessName = strings.TrimSpace(reg.BusinessName)
	reg.Payout.AccountNumber = strings.TrimSpace(reg.Payout.AccountNumber)
	reg.Payout.HolderName = strings.TrimSpace(reg.Payout.HolderName)

	ve := errors.ValidationErrs()
	validateProfile(ve, reg.BusinessName, reg.Payout, reg.Location, reg.MinAmount, reg.MaxAmount)
	if err := ve.Err(); err != nil {
		return models.Provider{}, errors.ValidationFailedErr(err)
	}
	if err := d.checkUnique(ctx, "", actor.ID, reg.Payout.AccountNumber); err != nil {
		return models.Provider{}, err
	}

	now := d.now()
	p := models.Provider{
		ID:                 uuid.NewString(),
		OwnerID:            actor.ID,
		BusinessName:       reg.BusinessName,
		Payout:             reg.Payout,
		BankEmail:          strings.TrimSpace(reg.BankEmail),
		Address:            strings.TrimSpace(reg.Address),
		Description:        strings.TrimSpace(reg.Description),
		Location:           reg.Location,
		VerificationStatus: models.VerificationPendingReview,
		IsAvailable:        false,
		MinAmount:          reg.MinAmount,
		MaxAmount:          reg.MaxAmount,
		ReputationScore:    defaultReputation,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := d.repo.InsertProvider(ctx, p); err != nil {
		return models.Provider{}, err
	}
	d.syncIndex(ctx, p)

	d.Logger.Info("provider registered",
		zap.String("provider_id", p.ID),
		zap.String("owner_id", p.OwnerID),
		zap.Int64("min_amount", p.MinAmount),
		zap.Int64("max_amount", p.MaxAmount),
	)
	return p, nil
}

// Update applies a partial profile update by the owner or an administrator.
func (d *Directory) Update(ctx context.Context, actor models.Actor, providerID string, upd models.ProviderUpdate) (models.Provider, error) {
	if upd.Payout != nil {
		if err := d.checkUnique(ctx, providerID, "", strings.TrimSpace(upd.Payout.AccountNumber)); err != nil {
			return models.Provider{}, err
		}
	}

	p, err := d.mutate(ctx, providerID, func(p *models.Provider) error {
		if err := authorizeOwner(actor, *p); err != nil {
			return err
		}
		if upd.BusinessName != nil {
			p.BusinessName = strings.TrimSpace(*upd.BusinessName)
		}
		if upd.Payout != nil {
			p.Payout = models.PayoutDestination{
				AccountNumber: strings.TrimSpace(upd.Payout.AccountNumber),
				HolderName:    strings.TrimSpace(upd.Payout.HolderName),
			}
		}
		if upd.BankEmail != nil {
			p.BankEmail = strings.TrimSpace(*upd.BankEmail)
		}
		if upd.Address != nil {
			p.Address = strings.TrimSpace(*upd.Address)
		}
		if upd.Description != nil {
			p.Description = strings.TrimSpace(*upd.Description)
		}
		// A half-specified location is ignored rather than guessed.
		if upd.Lat != nil && upd.Lng != nil {
			p.Location = models.Coordinate{Lat: *upd.Lat, Lng: *upd.Lng}
		}
		if upd.MinAmount != nil {
			p.MinAmount = *upd.MinAmount
		}
		if upd.MaxAmount != nil {
			p.MaxAmount = *upd.MaxAmount
		}

		ve := errors.ValidationErrs()
		validateProfile(ve, p.BusinessName, p.Payout, p.Location, p.MinAmount, p.MaxAmount)
		if err := ve.Err(); err != nil {
			return errors.ValidationFailedErr(err)
		}
		return nil
	})
	if err != nil {
		return models.Provider{}, err
	}

	d.syncIndex(ctx, p)
	d.Logger.Info("provider updated", zap.String("provider_id", p.ID), zap.String("actor_id", actor.ID))
	return p, nil
}

// SetAvailability flips is_available. declaredLiquidity is informational
// only and never enforced against requested amounts.
func (d *Directory) SetAvailability(ctx context.Context, actor models.Actor, providerID string, isAvailable bool, declaredLiquidity *int64) (models.Provider, error) {
	if declaredLiquidity != nil && *declaredLiquidity < 0 {
		ve := errors.ValidationErrs()
		ve.Add("declared_liquidity", "cannot be negative")
		return models.Provider{}, errors.ValidationFailedErr(ve.Err())
	}

	p, err := d.mutate(ctx, providerID, func(p *models.Provider) error {
		if err := authorizeOwner(actor, *p); err != nil {
			return err
		}
		p.IsAvailable = isAvailable
		p.DeclaredLiquidity = declaredLiquidity
		return nil
	})
	if err != nil {
		return models.Provider{}, err
	}

	d.syncIndex(ctx, p)
	d.Logger.Info("provider availability changed",
		zap.String("provider_id", p.ID),
		zap.Bool("is_available", p.IsAvailable),
	)
	return p, nil
}

// Verify moves a provider to active. It is also how an administrator lifts a
// suspension.
func (d *Directory) Verify(ctx context.Context, actor models.Actor, providerID string) (models.Provider, error) {
	return d.setVerification(ctx, actor, providerID, models.VerificationActive)
}

// Suspend removes a provider from matching. Existing transactions are not
// touched.
func (d *Directory) Suspend(ctx context.Context, actor models.Actor, providerID string) (models.Provider, error) {
	return d.setVerification(ctx, actor, providerID, models.VerificationSuspended)
}

func (d *Directory) setVerification(ctx context.Context, actor models.Actor, providerID string, status models.VerificationStatus) (models.Provider, error) {
	if !actor.IsAdmin() {
		return models.Provider{}, errors.ForbiddenErr(actor.ID, "change provider verification")
	}
	p, err := d.mutate(ctx, providerID, func(p *models.Provider) error {
		p.VerificationStatus = status
		if status == models.VerificationSuspended {
			p.IsAvailable = false
		}
		return nil
	})
	if err != nil {
		return models.Provider{}, err
	}
	d.syncIndex(ctx, p)
	d.Logger.Info("provider verification changed",
		zap.String("provider_id", p.ID),
		zap.String("status", string(status)),
		zap.String("admin_id", actor.ID),
	)
	return p, nil
}

func (d *Directory) Get(ctx context.Context, providerID string) (models.Provider, error) {
	return d.repo.GetProvider(ctx, providerID)
}

func (d *Directory) GetByOwner(ctx context.Context, ownerID string) (models.Provider, error) {
	found, err := d.repo.ListProviders(ctx, models.ProviderFilter{OwnerID: ownerID, Limit: 1})
	if err != nil {
		return models.Provider{}, err
	}
	if len(found) == 0 {
		return models.Provider{}, errors.E(errors.NotFound, "no provider profile for owner "+ownerID, nil)
	}
	return found[0], nil
}

// Claim re-reads the provider under its lock, checks that it can serve
// amount right now and runs fn while the lock is held. Availability changes
// for the same provider wait until fn returns.
func (d *Directory) Claim(ctx context.Context, providerID string, amount int64, fn func(models.Provider) error) error {
	unlock := d.locks.Lock(providerID)
	defer unlock()

	p, err := d.repo.GetProvider(ctx, providerID)
	if err != nil {
		return err
	}
	if !p.Matchable() {
		return errors.E(errors.ProviderUnavailable, "provider "+p.ID+" is not available", nil)
	}
	if !p.Accepts(amount) {
		return errors.E(errors.AmountOutOfBounds, boundsMessage(p), nil)
	}
	return fn(p)
}

// RecordCompletion bumps the provider's completed transaction counters.
func (d *Directory) RecordCompletion(ctx context.Context, providerID string, amount int64) error {
	_, err := d.mutate(ctx, providerID, func(p *models.Provider) error {
		p.TotalTransactions++
		p.TotalVolume += amount
		return nil
	})
	return err
}

// mutate serialises read-modify-write cycles on one provider and retries on
// optimistic version conflicts from other processes.
func (d *Directory) mutate(ctx context.Context, providerID string, fn func(*models.Provider) error) (models.Provider, error) {
	unlock := d.locks.Lock(providerID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		p, err := d.repo.GetProvider(ctx, providerID)
		if err != nil {
			return models.Provider{}, err
		}
		version := p.Version
		if err := fn(&p); err != nil {
			return models.Provider{}, err
		}
		p.UpdatedAt = d.now()

		updated, err := d.repo.UpdateProvider(ctx, p, version)
		if errors.Is(errors.Conflict, err) && attempt < d.opts.ConflictRetries {
			d.Logger.Debug("provider version conflict, retrying", zap.String("provider_id", providerID), zap.Int("attempt", attempt))
			continue
		}
		return updated, err
	}
}

// syncIndex stores the provider's location, dropping suspended providers
// from the index. The record is authoritative and search re-checks it, so a
// failed index write is logged rather than returned.
func (d *Directory) syncIndex(ctx context.Context, p models.Provider) {
	var err error
	if p.VerificationStatus == models.VerificationSuspended {
		err = d.index.Remove(ctx, p.ID)
	} else {
		err = d.index.Upsert(ctx, p.ID, p.Location)
	}
	if err != nil {
		d.Logger.Error("failed to sync provider location index",
			zap.String("provider_id", p.ID),
			zap.String("verification_status", string(p.VerificationStatus)),
			zap.Error(err),
		)
	}
}

func (d *Directory) checkUnique(ctx context.Context, selfID, ownerID, account string) error {
	ve := errors.ValidationErrs()
	if ownerID != "" {
		existing, err := d.repo.ListProviders(ctx, models.ProviderFilter{OwnerID: ownerID, Limit: 1})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			ve.Add("owner_id", "already has a provider profile")
		}
	}
	if account != "" {
		existing, err := d.repo.ListProviders(ctx, models.ProviderFilter{PayoutAccount: account, Limit: 2})
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.ID != selfID {
				ve.Add("payout.account_number", "is already registered")
				break
			}
		}
	}
	if err := ve.Err(); err != nil {
		return errors.ValidationFailedErr(err)
	}
	return nil
}

func authorizeOwner(actor models.Actor, p models.Provider) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleProvider && actor.ID == p.OwnerID {
		return nil
	}
	return errors.ForbiddenErr(actor.ID, "manage provider "+p.ID)
}

func validateProfile(ve *errors.ValidationErrors, name string, payout models.PayoutDestination, loc models.Coordinate, minAmount, maxAmount int64) {
	if len(name) < 2 {
		ve.Add("business_name", "must have at least 2 characters")
	}
	if n := len(payout.AccountNumber); n < 8 || n > 12 {
		ve.Add("payout.account_number", "must have between 8 and 12 characters")
	}
	if len(payout.HolderName) < 2 {
		ve.Add("payout.holder_name", "must have at least 2 characters")
	}
	if !geo.Indexable(loc) {
		ve.Add("location", "is not a valid coordinate within the indexable latitude band")
	}
	if minAmount <= 0 {
		ve.Add("min_amount", "must be greater than zero")
	}
	if maxAmount <= 0 {
		ve.Add("max_amount", "must be greater than zero")
	}
	if maxAmount > MaxProviderAmount {
		ve.Add("max_amount", "must not exceed "+utils.FormatInt(MaxProviderAmount))
	}
	if minAmount > maxAmount {
		ve.Add("max_amount", "must be greater than or equal to min_amount")
	}
}

func boundsMessage(p models.Provider) string {
	var b strings.Builder
	b.WriteString("amount must be between ")
	b.WriteString(utils.FormatInt(p.MinAmount))
	b.WriteString(" and ")
	b.WriteString(utils.FormatInt(p.MaxAmount))
	return b.String()
}
