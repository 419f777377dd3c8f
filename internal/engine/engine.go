package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tariff-compare/internal/storage"
	"tariff-compare/internal/tariff"
)

// Options tune one engine instance. Zero values fall back to the defaults
// used in production.
type Options struct {
	Builder tariff.BuilderConfig
	Filter  tariff.FilterConfig

	// Charges is applied after simulation when IncludeRegulatoryCharges is
	// set; otherwise the supplier-price formula is authoritative.
	Charges                  tariff.RegulatoryCharges
	IncludeRegulatoryCharges bool

	// TopN limits the internal ranking; the HTTP surface shows fewer.
	TopN int

	// ExclusiveRuns rejects concurrent comparisons for the same upload via
	// a store advisory lock.
	ExclusiveRuns bool

	// StoreTimeout bounds each catalog fetch and persistence call.
	StoreTimeout time.Duration
}

// Result is the outcome of one successful comparison run.
type Result struct {
	UploadID uuid.UUID
	Profile  tariff.ConsumptionProfile
	Flags    tariff.Flags
	Ranked   []tariff.RankedOffer
	// Exclusions maps rejected offer ids to the plausibility rule that
	// excluded them. Diagnostic only.
	Exclusions map[string]tariff.ExclusionReason
	CreatedAt  time.Time
}

// Best returns the cheapest ranked offer, nil when absent.
func (r *Result) Best() *tariff.RankedOffer {
	if len(r.Ranked) == 0 {
		return nil
	}
	return &r.Ranked[0]
}

// RunnerUp returns the second-cheapest ranked offer, nil when absent.
func (r *Result) RunnerUp() *tariff.RankedOffer {
	if len(r.Ranked) < 2 {
		return nil
	}
	return &r.Ranked[1]
}

// Engine turns a stored upload into a persisted, ranked tariff comparison.
// Stateless between invocations; safe for concurrent use.
type Engine struct {
	uploads storage.UploadStore
	offers  storage.OfferCatalog
	results storage.ResultStore
	audit   *auditRecorder
	locker  storage.AdvisoryLocker
	opts    Options
	logger  zerolog.Logger
}

// New constructs the comparison engine. audit and locker may be nil; the
// audit trail and run exclusivity degrade gracefully without them.
func New(uploads storage.UploadStore, offers storage.OfferCatalog, results storage.ResultStore, audit storage.AuditStore, locker storage.AdvisoryLocker, opts Options, logger zerolog.Logger) *Engine {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Engine{
		uploads: uploads,
		offers:  offers,
		results: results,
		audit:   newAuditRecorder(audit, logger),
		locker:  locker,
		opts:    opts,
		logger:  logger.With().Str("component", "engine").Logger(),
	}
}

// CompareOffers runs the full pipeline for one upload: build the profile,
// simulate and filter every candidate offer, rank the survivors, persist
// the result, and record the audit entry. Either a complete result or an
// error comes back; no partial state is observable.
func (e *Engine) CompareOffers(ctx context.Context, uploadID uuid.UUID) (*Result, error) {
	if e.opts.ExclusiveRuns && e.locker != nil {
		unlock, acquired, err := e.locker.TryAdvisoryLock(ctx, lockKey(uploadID))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !acquired {
			return nil, ErrRunInProgress
		}
		defer unlock()
	}

	upload, err := e.fetchUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	commodity := tariff.Commodity(upload.Commodity)
	if commodity != tariff.CommodityGas {
		commodity = tariff.CommodityElectricity
	}

	raw, parsed := tariff.ParseRawRecord(upload.Extracted)
	profile, flags := tariff.BuildProfile(e.opts.Builder, raw, commodity)
	if !parsed {
		flags.Set(tariff.FlagInvalidRawRecord)
	}

	offerRows, err := e.fetchOffers(ctx, commodity)
	if err != nil {
		e.audit.Record(ctx, uploadID, profile, flags, nil)
		return nil, err
	}

	candidates := make([]tariff.Candidate, 0, len(offerRows))
	exclusions := make(map[string]tariff.ExclusionReason)
	for _, row := range offerRows {
		offer := offerFromRow(row)
		if reason := tariff.CheckPlausibility(e.opts.Filter, profile, offer); reason != tariff.ExclusionNone {
			exclusions[offer.ID] = reason
			e.logger.Debug().
				Str("offer_id", offer.ID).
				Str("reason", string(reason)).
				Msg("offer excluded by plausibility filter")
			continue
		}

		breakdown := tariff.Simulate(profile, offer)
		if e.opts.IncludeRegulatoryCharges {
			breakdown = e.opts.Charges.Apply(breakdown, commodity, profile.AnnualVolume)
		}
		candidates = append(candidates, tariff.Candidate{Offer: offer, Breakdown: breakdown})
	}

	ranked, err := tariff.Rank(candidates, e.opts.TopN)
	if err != nil {
		flags.Set(tariff.FlagNoEligibleOffers)
		e.audit.Record(ctx, uploadID, profile, flags, nil)
		return nil, err
	}

	result := &Result{
		UploadID:   uploadID,
		Profile:    profile,
		Flags:      flags,
		Ranked:     ranked,
		Exclusions: exclusions,
	}

	persisted, err := e.persist(ctx, upload, result)
	if err != nil {
		e.audit.Record(ctx, uploadID, profile, flags, nil)
		return nil, err
	}
	result.CreatedAt = persisted.CreatedAt

	best := result.Best().Breakdown.Total
	e.audit.Record(ctx, uploadID, profile, flags, &best)

	e.logger.Info().
		Stringer("upload_id", uploadID).
		Str("commodity", string(commodity)).
		Int("candidates", len(offerRows)).
		Int("excluded", len(exclusions)).
		Str("best_total", best.StringFixed(2)).
		Msg("comparison complete")

	return result, nil
}

func (e *Engine) fetchUpload(ctx context.Context, uploadID uuid.UUID) (storage.Upload, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	upload, err := e.uploads.GetUpload(ctx, uploadID)
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotFound) {
			return storage.Upload{}, err
		}
		return storage.Upload{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return upload, nil
}

func (e *Engine) fetchOffers(ctx context.Context, commodity tariff.Commodity) ([]storage.OfferRow, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	rows, err := e.offers.ListActiveOffers(ctx, string(commodity))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoActiveOffers
	}
	return rows, nil
}

func (e *Engine) persist(ctx context.Context, upload storage.Upload, result *Result) (storage.ComparisonRow, error) {
	profileJSON, err := json.Marshal(result.Profile)
	if err != nil {
		return storage.ComparisonRow{}, fmt.Errorf("marshal profile: %w", err)
	}
	rankedJSON, err := json.Marshal(result.Ranked)
	if err != nil {
		return storage.ComparisonRow{}, fmt.Errorf("marshal ranked offers: %w", err)
	}

	bestID := result.Best().Offer.ID
	row := storage.ComparisonRow{
		UploadID:     upload.ID,
		UserID:       upload.UserID,
		ProfileJSON:  profileJSON,
		RankedOffers: rankedJSON,
		BestOfferID:  &bestID,
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	persisted, err := e.results.InsertComparison(ctx, row)
	if err != nil {
		return storage.ComparisonRow{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return persisted, nil
}

func offerFromRow(row storage.OfferRow) tariff.Offer {
	offer := tariff.Offer{
		ID:              row.ID,
		Provider:        row.Provider,
		PlanName:        row.PlanName,
		Commodity:       tariff.Commodity(row.Commodity),
		PricingType:     tariff.PricingType(row.PricingType),
		Structure:       tariff.TariffStructure(row.TariffStructure),
		FixedMonthlyFee: row.FixedMonthlyFee,
		AnnualFeePerKW:  row.AnnualFeePerKW,
		IsActive:        row.IsActive,
	}
	if row.UnitPrice != nil {
		offer.UnitPrice = *row.UnitPrice
	}
	if row.PeakPrice != nil {
		offer.Bands.Peak = *row.PeakPrice
	}
	if row.MidPrice != nil {
		offer.Bands.Mid = *row.MidPrice
	}
	if row.OffPeakPrice != nil {
		offer.Bands.Off = *row.OffPeakPrice
	}
	return offer
}

// lockKey derives a stable advisory lock key from the upload id.
func lockKey(uploadID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(uploadID[:])
	return int64(h.Sum64())
}
