package tariff

import (
	"github.com/shopspring/decimal"
)

// CostBreakdown is the simulated annual cost of one offer under a profile.
// Total always equals the sum of the component fields; Surcharge and VAT
// stay zero unless the regulatory charge stage runs.
type CostBreakdown struct {
	FixedAnnual     decimal.Decimal `json:"fixedAnnual"`
	PowerAnnual     decimal.Decimal `json:"powerAnnual"`
	EnergyAnnual    decimal.Decimal `json:"energyAnnual"`
	SurchargeAnnual decimal.Decimal `json:"surchargeAnnual"`
	VATAnnual       decimal.Decimal `json:"vatAnnual"`
	Total           decimal.Decimal `json:"total"`
}

var months = decimal.NewFromInt(12)

// Simulate computes the annual cost of an offer under a profile. Pure and
// deterministic: no I/O, no hidden state. A band price the structure needs
// but the offer lacks contributes zero; the plausibility filter is the
// place where such offers get rejected.
func Simulate(profile ConsumptionProfile, offer Offer) CostBreakdown {
	fixed := offer.FixedMonthlyFee.Mul(months)

	power := decimal.Zero
	if profile.Commodity == CommodityElectricity {
		power = offer.AnnualFeePerKW.Mul(profile.ContractedPowerKW)
	}

	energy := simulateEnergy(profile, offer)

	return CostBreakdown{
		FixedAnnual:  fixed,
		PowerAnnual:  power,
		EnergyAnnual: energy,
		Total:        fixed.Add(power).Add(energy),
	}
}

func simulateEnergy(profile ConsumptionProfile, offer Offer) decimal.Decimal {
	volume := profile.AnnualVolume

	if profile.Commodity == CommodityGas {
		return volume.Mul(offer.UnitPrice)
	}

	switch offer.Structure {
	case StructureTwoBand:
		peakVolume := profile.Shares.Peak.Mul(volume)
		offVolume := profile.Shares.Mid.Add(profile.Shares.Off).Mul(volume)
		return peakVolume.Mul(offer.Bands.Peak).Add(offVolume.Mul(offer.Bands.Off))
	case StructureThreeBand:
		peak := profile.Shares.Peak.Mul(volume).Mul(offer.Bands.Peak)
		mid := profile.Shares.Mid.Mul(volume).Mul(offer.Bands.Mid)
		off := profile.Shares.Off.Mul(volume).Mul(offer.Bands.Off)
		return peak.Add(mid).Add(off)
	default:
		return volume.Mul(offer.UnitPrice)
	}
}

// RegulatoryCharges models the per-unit system charges and VAT the original
// billing rules add on top of the supplier price. Rates of zero disable the
// corresponding component.
type RegulatoryCharges struct {
	SystemChargePerKWhElectricity decimal.Decimal
	SystemChargePerUnitGas        decimal.Decimal
	VATRateElectricity            decimal.Decimal
	VATRateGas                    decimal.Decimal
}

// Apply returns a new breakdown extended with regulatory system charges and
// VAT. The input breakdown is not modified.
func (rc RegulatoryCharges) Apply(breakdown CostBreakdown, commodity Commodity, annualVolume decimal.Decimal) CostBreakdown {
	perUnit := rc.SystemChargePerKWhElectricity
	vatRate := rc.VATRateElectricity
	if commodity == CommodityGas {
		perUnit = rc.SystemChargePerUnitGas
		vatRate = rc.VATRateGas
	}

	surcharge := annualVolume.Mul(perUnit)
	taxable := breakdown.FixedAnnual.
		Add(breakdown.PowerAnnual).
		Add(breakdown.EnergyAnnual).
		Add(surcharge)
	vat := taxable.Mul(vatRate)

	out := breakdown
	out.SurchargeAnnual = surcharge
	out.VATAnnual = vat
	out.Total = taxable.Add(vat)
	return out
}
