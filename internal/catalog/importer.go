package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"tariff-compare/internal/logging"
	"tariff-compare/internal/storage"
)

// offerSchema constrains the catalog payload the scraping/normalization
// pipeline hands over. Prices travel as decimal strings so nothing loses
// precision on the way into the store.
const offerSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["offers"],
  "properties": {
    "offers": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "provider", "plan_name", "commodity", "pricing_type", "tariff_structure"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "provider": {"type": "string", "minLength": 1},
          "plan_name": {"type": "string", "minLength": 1},
          "commodity": {"enum": ["electricity", "gas", "dual"]},
          "pricing_type": {"enum": ["fixed", "indexed"]},
          "tariff_structure": {"enum": ["flat", "two_band", "three_band"]},
          "unit_price": {"$ref": "#/$defs/price"},
          "peak_price": {"$ref": "#/$defs/price"},
          "mid_price": {"$ref": "#/$defs/price"},
          "offpeak_price": {"$ref": "#/$defs/price"},
          "fixed_monthly_fee": {"$ref": "#/$defs/price"},
          "annual_fee_per_kw": {"$ref": "#/$defs/price"},
          "is_active": {"type": "boolean"}
        }
      }
    }
  },
  "$defs": {
    "price": {"type": "string", "pattern": "^\\d+(\\.\\d+)?$"}
  }
}`

type offerPayload struct {
	Offers []offerEntry `json:"offers"`
}

type offerEntry struct {
	ID              string  `json:"id"`
	Provider        string  `json:"provider"`
	PlanName        string  `json:"plan_name"`
	Commodity       string  `json:"commodity"`
	PricingType     string  `json:"pricing_type"`
	TariffStructure string  `json:"tariff_structure"`
	UnitPrice       *string `json:"unit_price"`
	PeakPrice       *string `json:"peak_price"`
	MidPrice        *string `json:"mid_price"`
	OffPeakPrice    *string `json:"offpeak_price"`
	FixedMonthlyFee *string `json:"fixed_monthly_fee"`
	AnnualFeePerKW  *string `json:"annual_fee_per_kw"`
	IsActive        *bool   `json:"is_active"`
}

// Importer validates and upserts offer catalog payloads.
type Importer struct {
	catalog storage.OfferCatalog
	schema  *jsonschema.Schema
	logger  zerolog.Logger
}

// NewImporter compiles the catalog schema and wires the target store.
func NewImporter(catalog storage.OfferCatalog, logger zerolog.Logger) (*Importer, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("offers.json", strings.NewReader(offerSchema)); err != nil {
		return nil, fmt.Errorf("add catalog schema: %w", err)
	}
	schema, err := compiler.Compile("offers.json")
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	return &Importer{
		catalog: catalog,
		schema:  schema,
		logger:  logging.Component(logger, "catalog"),
	}, nil
}

// ImportFile reads, validates, and upserts one catalog file. It returns the
// number of offers written.
func (imp *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()
	return imp.Import(ctx, file)
}

// Import validates the payload against the catalog schema and upserts every
// offer. Validation is all-or-nothing: one malformed offer rejects the
// whole payload before any write happens.
func (imp *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read catalog payload: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return 0, fmt.Errorf("parse catalog payload: %w", err)
	}
	if err := imp.schema.Validate(generic); err != nil {
		return 0, fmt.Errorf("catalog payload does not match schema: %w", err)
	}

	var payload offerPayload
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode catalog payload: %w", err)
	}

	written := 0
	for _, entry := range payload.Offers {
		row, err := entry.toRow()
		if err != nil {
			return written, err
		}
		if err := imp.catalog.UpsertOffer(ctx, row); err != nil {
			return written, fmt.Errorf("upsert offer %s: %w", entry.ID, err)
		}
		written++
	}

	imp.logger.Info().Int("offers", written).Msg("catalog import complete")
	return written, nil
}

func (e offerEntry) toRow() (storage.OfferRow, error) {
	row := storage.OfferRow{
		ID:              e.ID,
		Provider:        e.Provider,
		PlanName:        e.PlanName,
		Commodity:       e.Commodity,
		PricingType:     e.PricingType,
		TariffStructure: e.TariffStructure,
		IsActive:        true,
	}
	if e.IsActive != nil {
		row.IsActive = *e.IsActive
	}

	var err error
	if row.UnitPrice, err = parsePrice(e.UnitPrice, "unit_price", e.ID); err != nil {
		return storage.OfferRow{}, err
	}
	if row.PeakPrice, err = parsePrice(e.PeakPrice, "peak_price", e.ID); err != nil {
		return storage.OfferRow{}, err
	}
	if row.MidPrice, err = parsePrice(e.MidPrice, "mid_price", e.ID); err != nil {
		return storage.OfferRow{}, err
	}
	if row.OffPeakPrice, err = parsePrice(e.OffPeakPrice, "offpeak_price", e.ID); err != nil {
		return storage.OfferRow{}, err
	}

	fee, err := parsePrice(e.FixedMonthlyFee, "fixed_monthly_fee", e.ID)
	if err != nil {
		return storage.OfferRow{}, err
	}
	if fee != nil {
		row.FixedMonthlyFee = *fee
	}

	perKW, err := parsePrice(e.AnnualFeePerKW, "annual_fee_per_kw", e.ID)
	if err != nil {
		return storage.OfferRow{}, err
	}
	if perKW != nil {
		row.AnnualFeePerKW = *perKW
	}

	return row, nil
}

func parsePrice(v *string, field, offerID string) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, fmt.Errorf("offer %s: parse %s: %w", offerID, field, err)
	}
	return &d, nil
}
