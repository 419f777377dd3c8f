package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tariff-compare/internal/storage"
	"tariff-compare/internal/tariff"
)

// auditRecorder writes one calculation log entry per run. Best effort: a
// failed write is logged and swallowed so it can never fail a comparison.
type auditRecorder struct {
	store  storage.AuditStore
	logger zerolog.Logger
}

func newAuditRecorder(store storage.AuditStore, logger zerolog.Logger) *auditRecorder {
	return &auditRecorder{
		store:  store,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record persists the run's diagnostics. bestCost is nil when the run
// produced no ranking.
func (a *auditRecorder) Record(ctx context.Context, uploadID uuid.UUID, profile tariff.ConsumptionProfile, flags tariff.Flags, bestCost *decimal.Decimal) {
	if a.store == nil {
		return
	}

	row := storage.CalculationLogRow{
		UploadID:   uploadID,
		Tipo:       string(profile.Commodity),
		Consumo:    profile.AnnualVolume,
		CostoAnnuo: bestCost,
		Flags:      flags,
	}
	if err := a.store.InsertCalculationLog(ctx, row); err != nil {
		a.logger.Error().Err(err).Stringer("upload_id", uploadID).Msg("failed to write calculation log")
	}
}
