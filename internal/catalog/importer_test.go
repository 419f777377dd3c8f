package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tariff-compare/internal/storage"
)

type captureCatalog struct {
	rows []storage.OfferRow
}

func (c *captureCatalog) ListActiveOffers(_ context.Context, _ string) ([]storage.OfferRow, error) {
	return c.rows, nil
}

func (c *captureCatalog) UpsertOffer(_ context.Context, offer storage.OfferRow) error {
	c.rows = append(c.rows, offer)
	return nil
}

const validPayload = `{
  "offers": [
    {
      "id": "acme-flex",
      "provider": "acme",
      "plan_name": "Flex",
      "commodity": "electricity",
      "pricing_type": "fixed",
      "tariff_structure": "flat",
      "unit_price": "0.18",
      "fixed_monthly_fee": "9.50"
    },
    {
      "id": "acme-night",
      "provider": "acme",
      "plan_name": "Night Saver",
      "commodity": "electricity",
      "pricing_type": "fixed",
      "tariff_structure": "two_band",
      "peak_price": "0.22",
      "offpeak_price": "0.14",
      "is_active": false
    }
  ]
}`

func TestImportValidPayload(t *testing.T) {
	store := &captureCatalog{}
	imp, err := NewImporter(store, zerolog.Nop())
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}

	n, err := imp.Import(context.Background(), strings.NewReader(validPayload))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d, want 2", n)
	}

	first := store.rows[0]
	if first.UnitPrice == nil || first.UnitPrice.String() != "0.18" {
		t.Fatalf("unit price = %v, want 0.18", first.UnitPrice)
	}
	if !first.IsActive {
		t.Fatal("is_active must default to true when omitted")
	}

	second := store.rows[1]
	if second.IsActive {
		t.Fatal("explicit is_active=false must be honored")
	}
	if second.PeakPrice == nil || second.OffPeakPrice == nil {
		t.Fatal("band prices missing after import")
	}
	if second.UnitPrice != nil {
		t.Fatal("unit price must stay null for banded offers")
	}
}

func TestImportRejectsUnknownCommodity(t *testing.T) {
	store := &captureCatalog{}
	imp, err := NewImporter(store, zerolog.Nop())
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}

	payload := `{"offers":[{"id":"x","provider":"p","plan_name":"n","commodity":"water","pricing_type":"fixed","tariff_structure":"flat"}]}`
	if _, err := imp.Import(context.Background(), strings.NewReader(payload)); err == nil {
		t.Fatal("unknown commodity must fail schema validation")
	}
	if len(store.rows) != 0 {
		t.Fatal("nothing may be written when validation fails")
	}
}

func TestImportRejectsNonNumericPrice(t *testing.T) {
	store := &captureCatalog{}
	imp, err := NewImporter(store, zerolog.Nop())
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}

	payload := `{"offers":[{"id":"x","provider":"p","plan_name":"n","commodity":"gas","pricing_type":"fixed","tariff_structure":"flat","unit_price":"cheap"}]}`
	if _, err := imp.Import(context.Background(), strings.NewReader(payload)); err == nil {
		t.Fatal("non-numeric price must fail schema validation")
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	imp, err := NewImporter(&captureCatalog{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}

	if _, err := imp.Import(context.Background(), strings.NewReader("{not json")); err == nil {
		t.Fatal("malformed JSON must fail")
	}
}
