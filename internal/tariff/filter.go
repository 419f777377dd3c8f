package tariff

import (
	"github.com/shopspring/decimal"
)

// ExclusionReason names why the plausibility filter rejected an offer.
// Reasons are diagnostic only; they never fail a run.
type ExclusionReason string

const (
	ExclusionNone              ExclusionReason = ""
	ExclusionInactive          ExclusionReason = "inactive"
	ExclusionCommodityMismatch ExclusionReason = "commodity_mismatch"
	ExclusionNonPositivePrice  ExclusionReason = "non_positive_price"
	ExclusionBelowPriceFloor   ExclusionReason = "below_price_floor"
)

// FilterConfig holds the plausibility thresholds.
type FilterConfig struct {
	// PriceFloor rejects unit prices that look like a tariff spread stored
	// in place of an all-in price, a known catalog-side extraction defect.
	PriceFloor decimal.Decimal
	// FloorVolumeThreshold limits the floor check to electricity profiles
	// consuming at least this much per year.
	FloorVolumeThreshold decimal.Decimal
}

// DefaultFilterConfig returns the production thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		PriceFloor:           decimal.NewFromFloat(0.05),
		FloorVolumeThreshold: decimal.NewFromInt(2000),
	}
}

// CheckPlausibility applies every plausibility rule to one offer. An offer
// is scored and ranked only when the returned reason is ExclusionNone.
func CheckPlausibility(cfg FilterConfig, profile ConsumptionProfile, offer Offer) ExclusionReason {
	if !offer.IsActive {
		return ExclusionInactive
	}
	if !offer.MatchesCommodity(profile.Commodity) {
		return ExclusionCommodityMismatch
	}

	if profile.Commodity == CommodityGas {
		if !offer.UnitPrice.IsPositive() {
			return ExclusionNonPositivePrice
		}
		return ExclusionNone
	}

	// Electricity. A banded offer with a missing band price simulates to a
	// nonsensically low total, so zero band prices are rejected here rather
	// than in the simulator.
	switch offer.Structure {
	case StructureTwoBand:
		if !offer.Bands.Peak.IsPositive() || !offer.Bands.Off.IsPositive() {
			return ExclusionNonPositivePrice
		}
	case StructureThreeBand:
		if !offer.Bands.Peak.IsPositive() || !offer.Bands.Mid.IsPositive() || !offer.Bands.Off.IsPositive() {
			return ExclusionNonPositivePrice
		}
	default:
		if !offer.UnitPrice.IsPositive() {
			return ExclusionNonPositivePrice
		}
	}

	if profile.AnnualVolume.GreaterThanOrEqual(cfg.FloorVolumeThreshold) {
		if lowestPrice(offer).LessThan(cfg.PriceFloor) {
			return ExclusionBelowPriceFloor
		}
	}

	return ExclusionNone
}

func lowestPrice(offer Offer) decimal.Decimal {
	switch offer.Structure {
	case StructureTwoBand:
		return decimal.Min(offer.Bands.Peak, offer.Bands.Off)
	case StructureThreeBand:
		return decimal.Min(offer.Bands.Peak, offer.Bands.Mid, offer.Bands.Off)
	default:
		return offer.UnitPrice
	}
}
