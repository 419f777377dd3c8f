package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
)

// Compare runs one comparison for an upload and prints the ranked result.
func (a *App) Compare(ctx context.Context, uploadID string) error {
	id, err := uuid.Parse(uploadID)
	if err != nil {
		return fmt.Errorf("invalid upload id: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := a.newEngine(store).CompareOffers(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "profile: %s, annual volume %s\n", result.Profile.Commodity, result.Profile.AnnualVolume.StringFixed(0))
	if len(result.Exclusions) > 0 {
		fmt.Fprintf(os.Stdout, "excluded offers: %d\n", len(result.Exclusions))
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tOffer\tProvider\tFixed\tPower\tEnergy\tTotal")
	for _, r := range result.Ranked {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Rank,
			r.Offer.PlanName,
			r.Offer.Provider,
			r.Breakdown.FixedAnnual.StringFixed(2),
			r.Breakdown.PowerAnnual.StringFixed(2),
			r.Breakdown.EnergyAnnual.StringFixed(2),
			r.Breakdown.Total.StringFixed(2),
		)
	}
	writer.Flush()
	return nil
}
