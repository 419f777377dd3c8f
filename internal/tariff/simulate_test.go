package tariff

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSimulateFlatElectricity(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec("2700"),
	}
	offer := Offer{
		Commodity:       CommodityElectricity,
		Structure:       StructureFlat,
		UnitPrice:       dec("0.15"),
		FixedMonthlyFee: dec("10"),
	}

	b := Simulate(profile, offer)

	if !b.EnergyAnnual.Equal(dec("405")) {
		t.Fatalf("energy annual = %s, want 405", b.EnergyAnnual)
	}
	if !b.FixedAnnual.Equal(dec("120")) {
		t.Fatalf("fixed annual = %s, want 120", b.FixedAnnual)
	}
	if !b.Total.Equal(dec("525")) {
		t.Fatalf("total = %s, want 525", b.Total)
	}
}

func TestSimulateThreeBandElectricity(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec("3000"),
		Shares: TimeOfUseShares{
			Peak: dec("0.4"),
			Mid:  dec("0.35"),
			Off:  dec("0.25"),
		},
	}
	offer := Offer{
		Commodity: CommodityElectricity,
		Structure: StructureThreeBand,
		Bands: BandPrices{
			Peak: dec("0.20"),
			Mid:  dec("0.15"),
			Off:  dec("0.10"),
		},
		FixedMonthlyFee: dec("8"),
	}

	b := Simulate(profile, offer)

	if !b.EnergyAnnual.Equal(dec("472.5")) {
		t.Fatalf("energy annual = %s, want 472.5", b.EnergyAnnual)
	}
	if !b.FixedAnnual.Equal(dec("96")) {
		t.Fatalf("fixed annual = %s, want 96", b.FixedAnnual)
	}
	if !b.Total.Equal(dec("568.5")) {
		t.Fatalf("total = %s, want 568.5", b.Total)
	}
}

func TestSimulateTwoBandElectricity(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec("2000"),
		Shares: TimeOfUseShares{
			Peak: dec("0.5"),
			Mid:  dec("0.2"),
			Off:  dec("0.3"),
		},
	}
	offer := Offer{
		Commodity: CommodityElectricity,
		Structure: StructureTwoBand,
		Bands: BandPrices{
			Peak: dec("0.20"),
			Off:  dec("0.10"),
		},
	}

	b := Simulate(profile, offer)

	// 1000×0.20 + 1000×0.10
	if !b.EnergyAnnual.Equal(dec("300")) {
		t.Fatalf("energy annual = %s, want 300", b.EnergyAnnual)
	}
}

func TestSimulateGas(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityGas,
		AnnualVolume: dec("1200"),
	}
	offer := Offer{
		Commodity:       CommodityGas,
		Structure:       StructureFlat,
		UnitPrice:       dec("0.9"),
		FixedMonthlyFee: dec("12"),
		// Per-kW fees never apply to gas even if the catalog carries one.
		AnnualFeePerKW: dec("5"),
	}

	b := Simulate(profile, offer)

	if !b.PowerAnnual.IsZero() {
		t.Fatalf("power annual = %s, want 0 for gas", b.PowerAnnual)
	}
	if !b.Total.Equal(dec("1224")) {
		t.Fatalf("total = %s, want 1224", b.Total)
	}
}

func TestSimulatePowerComponent(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:         CommodityElectricity,
		AnnualVolume:      dec("1000"),
		ContractedPowerKW: dec("4.5"),
	}
	offer := Offer{
		Commodity:      CommodityElectricity,
		Structure:      StructureFlat,
		UnitPrice:      dec("0.10"),
		AnnualFeePerKW: dec("20"),
	}

	b := Simulate(profile, offer)

	if !b.PowerAnnual.Equal(dec("90")) {
		t.Fatalf("power annual = %s, want 90", b.PowerAnnual)
	}
	if !b.Total.Equal(dec("190")) {
		t.Fatalf("total = %s, want 190", b.Total)
	}
}

func TestSimulateMissingBandPriceContributesZero(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec("3000"),
		Shares: TimeOfUseShares{
			Peak: dec("0.4"),
			Mid:  dec("0.35"),
			Off:  dec("0.25"),
		},
	}
	offer := Offer{
		Commodity: CommodityElectricity,
		Structure: StructureThreeBand,
		Bands:     BandPrices{Peak: dec("0.20")},
	}

	b := Simulate(profile, offer)

	if !b.EnergyAnnual.Equal(dec("240")) {
		t.Fatalf("energy annual = %s, want 240 (only peak band priced)", b.EnergyAnnual)
	}
}

func TestSimulateDeterministic(t *testing.T) {
	profile := ConsumptionProfile{
		Commodity:    CommodityElectricity,
		AnnualVolume: dec("2700"),
		Shares: TimeOfUseShares{
			Peak: dec("0.35"),
			Mid:  dec("0.35"),
			Off:  dec("0.30"),
		},
	}
	offer := Offer{
		Commodity:       CommodityElectricity,
		Structure:       StructureThreeBand,
		Bands:           BandPrices{Peak: dec("0.21"), Mid: dec("0.19"), Off: dec("0.17")},
		FixedMonthlyFee: dec("7.5"),
	}

	first := Simulate(profile, offer)
	second := Simulate(profile, offer)

	if !first.Total.Equal(second.Total) {
		t.Fatalf("simulate not deterministic: %s vs %s", first.Total, second.Total)
	}
	want := first.FixedAnnual.Add(first.PowerAnnual).Add(first.EnergyAnnual)
	if !first.Total.Equal(want) {
		t.Fatalf("total %s != component sum %s", first.Total, want)
	}
}

func TestApplyRegulatoryCharges(t *testing.T) {
	base := CostBreakdown{
		FixedAnnual:  dec("120"),
		EnergyAnnual: dec("405"),
		Total:        dec("525"),
	}
	rc := RegulatoryCharges{
		SystemChargePerKWhElectricity: dec("0.04"),
		VATRateElectricity:            dec("0.10"),
	}

	out := rc.Apply(base, CommodityElectricity, dec("2700"))

	if !out.SurchargeAnnual.Equal(dec("108")) {
		t.Fatalf("surcharge = %s, want 108", out.SurchargeAnnual)
	}
	if !out.VATAnnual.Equal(dec("63.3")) {
		t.Fatalf("vat = %s, want 63.3", out.VATAnnual)
	}
	if !out.Total.Equal(dec("696.3")) {
		t.Fatalf("total = %s, want 696.3", out.Total)
	}
	if !base.Total.Equal(dec("525")) {
		t.Fatal("input breakdown must not be mutated")
	}
}
