package tariff

import (
	"github.com/shopspring/decimal"
)

// Commodity identifies a billable utility type.
type Commodity string

const (
	CommodityElectricity Commodity = "electricity"
	CommodityGas         Commodity = "gas"
	// CommodityDual marks offers sold for both commodities; such offers are
	// eligible for either an electricity or a gas comparison.
	CommodityDual Commodity = "dual"
)

// Valid reports whether c is a known commodity.
func (c Commodity) Valid() bool {
	switch c {
	case CommodityElectricity, CommodityGas, CommodityDual:
		return true
	}
	return false
}

// PricingType distinguishes fixed-price offers from market-indexed ones.
type PricingType string

const (
	PricingFixed   PricingType = "fixed"
	PricingIndexed PricingType = "indexed"
)

// TariffStructure describes how energy is priced over the year.
type TariffStructure string

const (
	StructureFlat      TariffStructure = "flat"
	StructureTwoBand   TariffStructure = "two_band"
	StructureThreeBand TariffStructure = "three_band"
)

// BandPrices carries per-band unit prices for time-of-use tariffs.
// A band that the structure does not use is left at zero.
type BandPrices struct {
	Peak decimal.Decimal `json:"peak"`
	Mid  decimal.Decimal `json:"mid"`
	Off  decimal.Decimal `json:"off"`
}

// Offer is a candidate tariff from the catalog. It is read-only to the
// engine; validity windows are the catalog's concern and only IsActive is
// trusted here.
type Offer struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	PlanName  string    `json:"planName"`
	Commodity Commodity `json:"commodity"`

	PricingType PricingType     `json:"pricingType"`
	Structure   TariffStructure `json:"tariffStructure"`

	// UnitPrice applies to flat structures (all gas offers are flat).
	UnitPrice decimal.Decimal `json:"unitPrice"`
	// Bands applies to two- and three-band electricity structures. TwoBand
	// uses Peak and Off only.
	Bands BandPrices `json:"bandPrices"`

	FixedMonthlyFee decimal.Decimal `json:"fixedMonthlyFee"`
	AnnualFeePerKW  decimal.Decimal `json:"annualFeePerKw"`

	IsActive bool `json:"isActive"`
}

// MatchesCommodity reports whether the offer can serve a profile of the
// given commodity. Dual offers match either side.
func (o Offer) MatchesCommodity(c Commodity) bool {
	return o.Commodity == c || o.Commodity == CommodityDual
}
