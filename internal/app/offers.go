package app

import (
	"context"
	"fmt"
	"os"

	"tariff-compare/internal/catalog"
)

// ImportOffers validates and loads a catalog file into the offer store.
func (a *App) ImportOffers(ctx context.Context, path string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	importer, err := catalog.NewImporter(store, a.Logger)
	if err != nil {
		return err
	}

	n, err := importer.ImportFile(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "imported %d offers\n", n)
	return nil
}
