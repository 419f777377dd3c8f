package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	chart "github.com/wcharczuk/go-chart/v2"

	"tariff-compare/internal/tariff"
)

// Export renders the latest comparison for an upload as CSV and/or a PNG
// bar chart of annual costs.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	uploadID, err := uuid.Parse(opts.UploadID)
	if err != nil {
		return fmt.Errorf("invalid upload id: %w", err)
	}
	if opts.MaxOffers <= 0 {
		opts.MaxOffers = a.Config.Export.MaxOffers
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	row, err := store.LatestComparison(ctx, uploadID)
	if err != nil {
		return err
	}

	var ranked []tariff.RankedOffer
	if err := json.Unmarshal(row.RankedOffers, &ranked); err != nil {
		return fmt.Errorf("decode ranked offers: %w", err)
	}
	if len(ranked) == 0 {
		a.Logger.Info().Stringer("upload_id", uploadID).Msg("no ranked offers to export")
		return nil
	}
	if len(ranked) > opts.MaxOffers {
		ranked = ranked[:opts.MaxOffers]
	}

	if opts.CSVPath != "" {
		if err := writeRankedCSV(opts.CSVPath, ranked); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeRankedPNG(opts.PNGPath, ranked); err != nil {
			return err
		}
	}

	a.Logger.Info().Int("offers", len(ranked)).Msg("export complete")
	return nil
}

func writeRankedCSV(path string, ranked []tariff.RankedOffer) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"rank", "offer_id", "provider", "plan_name", "fixed_annual", "power_annual", "energy_annual", "total"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range ranked {
		record := []string{
			fmt.Sprintf("%d", r.Rank),
			r.Offer.ID,
			r.Offer.Provider,
			r.Offer.PlanName,
			r.Breakdown.FixedAnnual.String(),
			r.Breakdown.PowerAnnual.String(),
			r.Breakdown.EnergyAnnual.String(),
			r.Breakdown.Total.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRankedPNG(path string, ranked []tariff.RankedOffer) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, len(ranked))
	for i, r := range ranked {
		bars[i] = chart.Value{
			Label: r.Offer.PlanName,
			Value: r.Breakdown.Total.InexactFloat64(),
		}
	}

	graph := chart.BarChart{
		Title:    "Annual cost by offer",
		Width:    1024,
		Height:   600,
		BarWidth: 60,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
