package tariff

import (
	"testing"
)

func electricityProfile(volume string) ConsumptionProfile {
	return ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec(volume),
	}
}

func TestFilterRejectsInactive(t *testing.T) {
	offer := Offer{Commodity: CommodityElectricity, Structure: StructureFlat, UnitPrice: dec("0.20")}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("2500"), offer); got != ExclusionInactive {
		t.Fatalf("reason = %q, want inactive", got)
	}
}

func TestFilterRejectsCommodityMismatch(t *testing.T) {
	offer := Offer{Commodity: CommodityGas, Structure: StructureFlat, UnitPrice: dec("0.9"), IsActive: true}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("2500"), offer); got != ExclusionCommodityMismatch {
		t.Fatalf("reason = %q, want commodity_mismatch", got)
	}
}

func TestFilterAcceptsDualForEitherCommodity(t *testing.T) {
	cfg := DefaultFilterConfig()
	offer := Offer{Commodity: CommodityDual, Structure: StructureFlat, UnitPrice: dec("0.20"), IsActive: true}

	if got := CheckPlausibility(cfg, electricityProfile("2500"), offer); got != ExclusionNone {
		t.Fatalf("electricity: reason = %q, want accepted", got)
	}

	gasProfile := ConsumptionProfile{Commodity: CommodityGas, AnnualVolume: dec("1200")}
	if got := CheckPlausibility(cfg, gasProfile, offer); got != ExclusionNone {
		t.Fatalf("gas: reason = %q, want accepted", got)
	}
}

func TestFilterRejectsBelowPriceFloor(t *testing.T) {
	offer := Offer{Commodity: CommodityElectricity, Structure: StructureFlat, UnitPrice: dec("0.03"), IsActive: true}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("2500"), offer); got != ExclusionBelowPriceFloor {
		t.Fatalf("reason = %q, want below_price_floor", got)
	}
}

func TestFilterFloorOnlyAboveVolumeThreshold(t *testing.T) {
	offer := Offer{Commodity: CommodityElectricity, Structure: StructureFlat, UnitPrice: dec("0.03"), IsActive: true}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("1500"), offer); got != ExclusionNone {
		t.Fatalf("reason = %q, want accepted below volume threshold", got)
	}
}

func TestFilterFloorChecksBandPrices(t *testing.T) {
	offer := Offer{
		Commodity: CommodityElectricity,
		Structure: StructureThreeBand,
		Bands:     BandPrices{Peak: dec("0.20"), Mid: dec("0.15"), Off: dec("0.02")},
		IsActive:  true,
	}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("3000"), offer); got != ExclusionBelowPriceFloor {
		t.Fatalf("reason = %q, want below_price_floor for cheapest band", got)
	}
}

func TestFilterRejectsMissingBandPrice(t *testing.T) {
	offer := Offer{
		Commodity: CommodityElectricity,
		Structure: StructureTwoBand,
		Bands:     BandPrices{Peak: dec("0.20")},
		IsActive:  true,
	}

	if got := CheckPlausibility(DefaultFilterConfig(), electricityProfile("1500"), offer); got != ExclusionNonPositivePrice {
		t.Fatalf("reason = %q, want non_positive_price for missing off-peak price", got)
	}
}

func TestFilterRejectsNonPositiveGasPrice(t *testing.T) {
	profile := ConsumptionProfile{Commodity: CommodityGas, AnnualVolume: dec("1200")}
	offer := Offer{Commodity: CommodityGas, Structure: StructureFlat, IsActive: true}

	if got := CheckPlausibility(DefaultFilterConfig(), profile, offer); got != ExclusionNonPositivePrice {
		t.Fatalf("reason = %q, want non_positive_price", got)
	}
}
