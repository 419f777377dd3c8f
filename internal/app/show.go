package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent comparison runs across all uploads.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	results, err := store.ListRecentComparisons(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "no comparison results found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Created (UTC)\tUpload\tBest Offer")

	for _, row := range results {
		best := ""
		if row.BestOfferID != nil {
			best = *row.BestOfferID
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\n",
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.UploadID,
			best,
		)
	}

	writer.Flush()
	return nil
}
