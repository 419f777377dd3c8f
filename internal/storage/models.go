package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Upload is a stored bill upload together with the payload the extraction
// service produced for it. The payload is best-effort JSON and may be
// partial or malformed; the engine tolerates both.
type Upload struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Commodity string
	Extracted json.RawMessage
	CreatedAt time.Time
}

// OfferRow is a catalog offer as persisted. Band prices are nullable
// because flat and gas offers do not carry them.
type OfferRow struct {
	ID              string
	Provider        string
	PlanName        string
	Commodity       string
	PricingType     string
	TariffStructure string
	UnitPrice       *decimal.Decimal
	PeakPrice       *decimal.Decimal
	MidPrice        *decimal.Decimal
	OffPeakPrice    *decimal.Decimal
	FixedMonthlyFee decimal.Decimal
	AnnualFeePerKW  decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ComparisonRow is one persisted comparison run. Rows are append-only; the
// current result for an upload is the most recently created row.
type ComparisonRow struct {
	ID           int64
	UploadID     uuid.UUID
	UserID       *uuid.UUID
	ProfileJSON  json.RawMessage
	RankedOffers json.RawMessage
	BestOfferID  *string
	CreatedAt    time.Time
}

// CalculationLogRow is the per-run audit entry. Column names follow the
// upstream billing schema (tipo, consumo, costo_annuo).
type CalculationLogRow struct {
	UploadID   uuid.UUID
	Tipo       string
	Consumo    decimal.Decimal
	CostoAnnuo *decimal.Decimal
	Flags      map[string]bool
	CreatedAt  time.Time
}
