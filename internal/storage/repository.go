package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrUploadNotFound indicates no upload exists for the requested id.
	ErrUploadNotFound = errors.New("storage: upload not found")
	// ErrResultNotFound indicates no comparison result exists for the upload.
	ErrResultNotFound = errors.New("storage: comparison result not found")
)

const (
	getUploadSQL = `SELECT
        id,
        user_id,
        commodity,
        extracted_json,
        created_at
    FROM uploads
    WHERE id = $1;`

	listActiveOffersSQL = `SELECT
        id,
        provider,
        plan_name,
        commodity,
        pricing_type,
        tariff_structure,
        unit_price,
        peak_price,
        mid_price,
        offpeak_price,
        fixed_monthly_fee,
        annual_fee_per_kw,
        is_active,
        created_at,
        updated_at
    FROM offers
    WHERE is_active
      AND (commodity = $1 OR commodity = 'dual')
    ORDER BY id;`

	upsertOfferSQL = `INSERT INTO offers (
        id,
        provider,
        plan_name,
        commodity,
        pricing_type,
        tariff_structure,
        unit_price,
        peak_price,
        mid_price,
        offpeak_price,
        fixed_monthly_fee,
        annual_fee_per_kw,
        is_active
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    )
    ON CONFLICT (id) DO UPDATE
    SET
        provider          = EXCLUDED.provider,
        plan_name         = EXCLUDED.plan_name,
        commodity         = EXCLUDED.commodity,
        pricing_type      = EXCLUDED.pricing_type,
        tariff_structure  = EXCLUDED.tariff_structure,
        unit_price        = EXCLUDED.unit_price,
        peak_price        = EXCLUDED.peak_price,
        mid_price         = EXCLUDED.mid_price,
        offpeak_price     = EXCLUDED.offpeak_price,
        fixed_monthly_fee = EXCLUDED.fixed_monthly_fee,
        annual_fee_per_kw = EXCLUDED.annual_fee_per_kw,
        is_active         = EXCLUDED.is_active,
        updated_at        = now();`

	insertComparisonSQL = `INSERT INTO comparison_results (
        upload_id,
        user_id,
        profile_json,
        ranked_offers,
        best_offer_id
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    RETURNING id, created_at;`

	latestComparisonSQL = `SELECT
        id,
        upload_id,
        user_id,
        profile_json,
        ranked_offers,
        best_offer_id,
        created_at
    FROM comparison_results
    WHERE upload_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT 1;`

	listRecentComparisonsSQL = `SELECT
        id,
        upload_id,
        user_id,
        profile_json,
        ranked_offers,
        best_offer_id,
        created_at
    FROM comparison_results
    ORDER BY created_at DESC, id DESC
    LIMIT $1;`

	insertCalculationLogSQL = `INSERT INTO calculation_log (
        upload_id,
        tipo,
        consumo,
        costo_annuo,
        flags
    ) VALUES (
        $1,$2,$3,$4,$5
    );`

	deleteCalculationLogBeforeSQL = `DELETE FROM calculation_log WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// UploadStore reads stored bill uploads.
type UploadStore interface {
	GetUpload(ctx context.Context, id uuid.UUID) (Upload, error)
}

// OfferCatalog exposes the candidate offer catalog.
type OfferCatalog interface {
	ListActiveOffers(ctx context.Context, commodity string) ([]OfferRow, error)
	UpsertOffer(ctx context.Context, offer OfferRow) error
}

// ResultStore persists and reads comparison results.
type ResultStore interface {
	InsertComparison(ctx context.Context, row ComparisonRow) (ComparisonRow, error)
	LatestComparison(ctx context.Context, uploadID uuid.UUID) (ComparisonRow, error)
	ListRecentComparisons(ctx context.Context, limit int) ([]ComparisonRow, error)
}

// AuditStore persists calculation log entries.
type AuditStore interface {
	InsertCalculationLog(ctx context.Context, row CalculationLogRow) error
	DeleteCalculationLogBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to uploads, offers, results, and the audit log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// GetUpload fetches one upload by id.
func (s *Store) GetUpload(ctx context.Context, id uuid.UUID) (Upload, error) {
	pool, err := s.getPool()
	if err != nil {
		return Upload{}, err
	}

	var up Upload
	row := pool.QueryRow(ctx, getUploadSQL, id)
	if scanErr := row.Scan(&up.ID, &up.UserID, &up.Commodity, &up.Extracted, &up.CreatedAt); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return Upload{}, ErrUploadNotFound
		}
		return Upload{}, fmt.Errorf("get upload: %w", scanErr)
	}
	return up, nil
}

// ListActiveOffers returns active offers for a commodity, dual offers
// included.
func (s *Store) ListActiveOffers(ctx context.Context, commodity string) ([]OfferRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveOffersSQL, commodity)
	if queryErr != nil {
		return nil, fmt.Errorf("list active offers: %w", queryErr)
	}
	defer rows.Close()

	offers := make([]OfferRow, 0)
	for rows.Next() {
		offer, scanErr := scanOffer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		offers = append(offers, offer)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return offers, nil
}

// UpsertOffer inserts or refreshes one catalog offer keyed by id.
func (s *Store) UpsertOffer(ctx context.Context, offer OfferRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertOfferSQL,
		offer.ID,
		offer.Provider,
		offer.PlanName,
		offer.Commodity,
		offer.PricingType,
		offer.TariffStructure,
		decimalArg(offer.UnitPrice),
		decimalArg(offer.PeakPrice),
		decimalArg(offer.MidPrice),
		decimalArg(offer.OffPeakPrice),
		offer.FixedMonthlyFee.String(),
		offer.AnnualFeePerKW.String(),
		offer.IsActive,
	)
	if execErr != nil {
		return fmt.Errorf("upsert offer: %w", execErr)
	}
	return nil
}

// InsertComparison appends a comparison result row.
func (s *Store) InsertComparison(ctx context.Context, row ComparisonRow) (ComparisonRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return ComparisonRow{}, err
	}

	var bestOfferID interface{}
	if row.BestOfferID != nil {
		bestOfferID = *row.BestOfferID
	}
	var userID interface{}
	if row.UserID != nil {
		userID = *row.UserID
	}

	out := row
	scanErr := pool.QueryRow(ctx, insertComparisonSQL,
		row.UploadID,
		userID,
		[]byte(row.ProfileJSON),
		[]byte(row.RankedOffers),
		bestOfferID,
	).Scan(&out.ID, &out.CreatedAt)
	if scanErr != nil {
		return ComparisonRow{}, fmt.Errorf("insert comparison result: %w", scanErr)
	}
	return out, nil
}

// LatestComparison returns the most recently created result for an upload.
func (s *Store) LatestComparison(ctx context.Context, uploadID uuid.UUID) (ComparisonRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return ComparisonRow{}, err
	}

	row, scanErr := scanComparison(pool.QueryRow(ctx, latestComparisonSQL, uploadID))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ComparisonRow{}, ErrResultNotFound
		}
		return ComparisonRow{}, fmt.Errorf("latest comparison: %w", scanErr)
	}
	return row, nil
}

// ListRecentComparisons lists the most recent runs across all uploads.
func (s *Store) ListRecentComparisons(ctx context.Context, limit int) ([]ComparisonRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentComparisonsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent comparisons: %w", queryErr)
	}
	defer rows.Close()

	results := make([]ComparisonRow, 0, limit)
	for rows.Next() {
		row, scanErr := scanComparison(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return results, nil
}

// InsertCalculationLog appends one audit entry.
func (s *Store) InsertCalculationLog(ctx context.Context, row CalculationLogRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	flags, marshalErr := json.Marshal(row.Flags)
	if marshalErr != nil {
		return fmt.Errorf("marshal flags: %w", marshalErr)
	}

	var costo interface{}
	if row.CostoAnnuo != nil {
		costo = row.CostoAnnuo.String()
	}

	_, execErr := pool.Exec(ctx, insertCalculationLogSQL,
		row.UploadID,
		row.Tipo,
		row.Consumo.String(),
		costo,
		flags,
	)
	if execErr != nil {
		return fmt.Errorf("insert calculation log: %w", execErr)
	}
	return nil
}

// DeleteCalculationLogBefore prunes audit entries older than the cutoff.
func (s *Store) DeleteCalculationLogBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteCalculationLogBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete calculation log before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func scanOffer(rows pgx.Rows) (OfferRow, error) {
	var (
		offer    OfferRow
		unit     sql.NullString
		peak     sql.NullString
		mid      sql.NullString
		off      sql.NullString
		fixedFee string
		perKW    string
	)

	if err := rows.Scan(
		&offer.ID,
		&offer.Provider,
		&offer.PlanName,
		&offer.Commodity,
		&offer.PricingType,
		&offer.TariffStructure,
		&unit,
		&peak,
		&mid,
		&off,
		&fixedFee,
		&perKW,
		&offer.IsActive,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	); err != nil {
		return OfferRow{}, err
	}

	var err error
	if offer.UnitPrice, err = nullDecimal(unit, "unit_price"); err != nil {
		return OfferRow{}, err
	}
	if offer.PeakPrice, err = nullDecimal(peak, "peak_price"); err != nil {
		return OfferRow{}, err
	}
	if offer.MidPrice, err = nullDecimal(mid, "mid_price"); err != nil {
		return OfferRow{}, err
	}
	if offer.OffPeakPrice, err = nullDecimal(off, "offpeak_price"); err != nil {
		return OfferRow{}, err
	}
	if offer.FixedMonthlyFee, err = decimal.NewFromString(fixedFee); err != nil {
		return OfferRow{}, fmt.Errorf("parse fixed_monthly_fee: %w", err)
	}
	if offer.AnnualFeePerKW, err = decimal.NewFromString(perKW); err != nil {
		return OfferRow{}, fmt.Errorf("parse annual_fee_per_kw: %w", err)
	}

	return offer, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComparison(row rowScanner) (ComparisonRow, error) {
	var (
		rec  ComparisonRow
		best sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UploadID,
		&rec.UserID,
		&rec.ProfileJSON,
		&rec.RankedOffers,
		&best,
		&rec.CreatedAt,
	); err != nil {
		return ComparisonRow{}, err
	}
	if best.Valid {
		value := best.String
		rec.BestOfferID = &value
	}
	return rec, nil
}

func nullDecimal(v sql.NullString, column string) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", column, err)
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
