package tariff

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Flag names recorded against a comparison run.
const (
	FlagUsedDefaults       = "usedDefaults"
	FlagUsedDefaultShares  = "usedDefaultShares"
	FlagDerivedFromCost    = "derivedVolumeFromCost"
	FlagCoercedNonNumeric  = "coercedNonNumeric"
	FlagVolumeOutOfRange   = "volumeOutOfPlausibleRange"
	FlagInvalidRawRecord   = "invalidRawRecord"
	FlagNoEligibleOffers   = "noEligibleOffers"
	FlagUsedDefaultPowerKW = "usedDefaultContractedPower"
)

// Flags collects named anomaly indicators for the audit trail.
type Flags map[string]bool

// Set marks a flag. Nil-safe only for reads; callers construct via make.
func (f Flags) Set(name string) { f[name] = true }

// Merge copies set flags from other into f.
func (f Flags) Merge(other Flags) {
	for k, v := range other {
		if v {
			f[k] = true
		}
	}
}

// TimeOfUseShares is the fraction of annual consumption in each pricing
// band. The three fractions sum to 1 within floating tolerance.
type TimeOfUseShares struct {
	Peak decimal.Decimal `json:"peak"`
	Mid  decimal.Decimal `json:"mid"`
	Off  decimal.Decimal `json:"off"`
}

// Sum returns peak+mid+off.
func (s TimeOfUseShares) Sum() decimal.Decimal {
	return s.Peak.Add(s.Mid).Add(s.Off)
}

// ConsumptionProfile is the canonical, normalized consumption record a
// comparison runs against. Immutable after construction; it is embedded in
// the persisted result but never stored on its own.
type ConsumptionProfile struct {
	Commodity    Commodity       `json:"commodity"`
	AnnualVolume decimal.Decimal `json:"annualVolume"`

	// Electricity only.
	Shares            TimeOfUseShares `json:"timeOfUseShares"`
	ContractedPowerKW decimal.Decimal `json:"contractedPowerKw"`
	Structure         TariffStructure `json:"tariffStructure"`

	// Informational; not used in simulation.
	CurrentProvider   string          `json:"currentProvider,omitempty"`
	CurrentUnitPrice  decimal.Decimal `json:"currentUnitPrice"`
	CurrentMonthlyFee decimal.Decimal `json:"currentMonthlyFixedFee"`
}

// RawRecord is the loosely typed payload produced by the extraction
// service. Keys may be absent, null, or carry the wrong JSON type; every
// accessor here degrades to zero instead of failing.
type RawRecord map[string]any

// ParseRawRecord decodes an extracted JSON payload. A payload that is not a
// JSON object yields an empty record and false, never an error: the profile
// builder still produces a usable default profile from it.
func ParseRawRecord(data []byte) (RawRecord, bool) {
	if len(data) == 0 {
		return RawRecord{}, false
	}
	var raw RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawRecord{}, false
	}
	return raw, true
}

// Decimal coerces the named field to a decimal. Strings containing numbers
// are accepted; anything else counts as absent. The second return reports
// presence of a usable value, the third that a present value had to be
// discarded as non-numeric.
func (r RawRecord) Decimal(key string) (decimal.Decimal, bool, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return decimal.Zero, false, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true, false
	case string:
		if n == "" {
			return decimal.Zero, false, false
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false, true
		}
		return d, true, false
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false, true
		}
		return d, true, false
	default:
		return decimal.Zero, false, true
	}
}

// String returns the named field when it is a non-empty string.
func (r RawRecord) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// BuilderConfig holds the defaulting policy thresholds. Values come from
// configuration so tests can override them.
type BuilderConfig struct {
	AssumedAvgPriceElectricity decimal.Decimal
	AssumedAvgPriceGas         decimal.Decimal
	DefaultVolumeElectricity   decimal.Decimal
	DefaultVolumeGas           decimal.Decimal
	DefaultShares              TimeOfUseShares
	DefaultContractedPowerKW   decimal.Decimal
	MinBandVolumeSum           decimal.Decimal
	MinPlausibleAnnualCost     decimal.Decimal

	// Volumes outside [min, max] for the commodity are flagged, not
	// rejected.
	PlausibleVolumeMinElectricity decimal.Decimal
	PlausibleVolumeMaxElectricity decimal.Decimal
	PlausibleVolumeMinGas         decimal.Decimal
	PlausibleVolumeMaxGas         decimal.Decimal
}

// DefaultBuilderConfig returns the national-average defaulting policy.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		AssumedAvgPriceElectricity: decimal.NewFromFloat(0.30),
		AssumedAvgPriceGas:         decimal.NewFromFloat(1.10),
		DefaultVolumeElectricity:   decimal.NewFromInt(2700),
		DefaultVolumeGas:           decimal.NewFromInt(1200),
		DefaultShares: TimeOfUseShares{
			Peak: decimal.NewFromFloat(0.35),
			Mid:  decimal.NewFromFloat(0.35),
			Off:  decimal.NewFromFloat(0.30),
		},
		DefaultContractedPowerKW:      decimal.NewFromInt(3),
		MinBandVolumeSum:              decimal.NewFromInt(100),
		MinPlausibleAnnualCost:        decimal.NewFromInt(100),
		PlausibleVolumeMinElectricity: decimal.NewFromInt(100),
		PlausibleVolumeMaxElectricity: decimal.NewFromInt(20000),
		PlausibleVolumeMinGas:         decimal.NewFromInt(50),
		PlausibleVolumeMaxGas:         decimal.NewFromInt(10000),
	}
}

// BuildProfile normalizes a raw extracted record into a ConsumptionProfile.
// It is total: any combination of missing or malformed fields yields a
// usable profile, with the substitutions reported through flags.
func BuildProfile(cfg BuilderConfig, raw RawRecord, commodity Commodity) (ConsumptionProfile, Flags) {
	flags := make(Flags)

	profile := ConsumptionProfile{
		Commodity: commodity,
		Shares:    cfg.DefaultShares,
		Structure: StructureFlat,
	}

	profile.AnnualVolume = resolveVolume(cfg, raw, commodity, flags)

	if commodity == CommodityElectricity {
		buildElectricityFields(cfg, raw, &profile, flags)
	}

	if provider, ok := raw.String("provider"); ok {
		profile.CurrentProvider = provider
	}
	profile.CurrentUnitPrice = coerce(raw, "unit_price", flags)
	profile.CurrentMonthlyFee = coerce(raw, "monthly_fee", flags)

	checkVolumeRange(cfg, profile, flags)
	return profile, flags
}

func resolveVolume(cfg BuilderConfig, raw RawRecord, commodity Commodity, flags Flags) decimal.Decimal {
	volume := coerce(raw, "annual_volume", flags)
	if volume.IsPositive() {
		return volume
	}

	cost := coerce(raw, "annual_cost", flags)
	if cost.GreaterThan(cfg.MinPlausibleAnnualCost) {
		flags.Set(FlagDerivedFromCost)
		price := cfg.AssumedAvgPriceElectricity
		if commodity == CommodityGas {
			price = cfg.AssumedAvgPriceGas
		}
		return cost.Div(price).Round(0)
	}

	flags.Set(FlagUsedDefaults)
	if commodity == CommodityGas {
		return cfg.DefaultVolumeGas
	}
	return cfg.DefaultVolumeElectricity
}

func buildElectricityFields(cfg BuilderConfig, raw RawRecord, profile *ConsumptionProfile, flags Flags) {
	power := coerce(raw, "contracted_power_kw", flags)
	if power.IsPositive() {
		profile.ContractedPowerKW = power
	} else {
		profile.ContractedPowerKW = cfg.DefaultContractedPowerKW
		flags.Set(FlagUsedDefaultPowerKW)
	}

	f1 := coerce(raw, "band_volume_f1", flags)
	f2 := coerce(raw, "band_volume_f2", flags)
	f3 := coerce(raw, "band_volume_f3", flags)
	sum := f1.Add(f2).Add(f3)

	havePresent := f1.IsPositive() && f2.IsPositive() && f3.IsPositive()
	if havePresent && sum.GreaterThan(cfg.MinBandVolumeSum) {
		profile.Shares = TimeOfUseShares{
			Peak: f1.Div(sum),
			Mid:  f2.Div(sum),
			Off:  f3.Div(sum),
		}
	} else {
		profile.Shares = cfg.DefaultShares
		flags.Set(FlagUsedDefaultShares)
	}

	if hint, ok := raw.String("tariff_hint"); ok && validStructure(TariffStructure(hint)) {
		profile.Structure = TariffStructure(hint)
	} else if f1.IsPositive() || f2.IsPositive() || f3.IsPositive() {
		profile.Structure = StructureThreeBand
	} else {
		profile.Structure = StructureFlat
	}
}

func checkVolumeRange(cfg BuilderConfig, profile ConsumptionProfile, flags Flags) {
	min, max := cfg.PlausibleVolumeMinElectricity, cfg.PlausibleVolumeMaxElectricity
	if profile.Commodity == CommodityGas {
		min, max = cfg.PlausibleVolumeMinGas, cfg.PlausibleVolumeMaxGas
	}
	if profile.AnnualVolume.LessThan(min) || profile.AnnualVolume.GreaterThan(max) {
		flags.Set(FlagVolumeOutOfRange)
	}
}

func validStructure(s TariffStructure) bool {
	switch s {
	case StructureFlat, StructureTwoBand, StructureThreeBand:
		return true
	}
	return false
}

func coerce(raw RawRecord, key string, flags Flags) decimal.Decimal {
	d, _, discarded := raw.Decimal(key)
	if discarded {
		flags.Set(FlagCoercedNonNumeric)
	}
	return d
}
