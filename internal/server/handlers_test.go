package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tariff-compare/internal/engine"
	"tariff-compare/internal/storage"
	"tariff-compare/internal/tariff"
)

type fakeComparer struct {
	result *engine.Result
	err    error
}

func (f *fakeComparer) CompareOffers(_ context.Context, _ uuid.UUID) (*engine.Result, error) {
	return f.result, f.err
}

type fakeResults struct {
	row storage.ComparisonRow
	err error
}

func (f *fakeResults) InsertComparison(_ context.Context, row storage.ComparisonRow) (storage.ComparisonRow, error) {
	return row, nil
}

func (f *fakeResults) LatestComparison(_ context.Context, _ uuid.UUID) (storage.ComparisonRow, error) {
	return f.row, f.err
}

func (f *fakeResults) ListRecentComparisons(_ context.Context, _ int) ([]storage.ComparisonRow, error) {
	return nil, nil
}

func rankedFixture(n int) []tariff.RankedOffer {
	out := make([]tariff.RankedOffer, n)
	for i := range out {
		out[i] = tariff.RankedOffer{
			Offer:     tariff.Offer{ID: string(rune('a' + i)), Commodity: tariff.CommodityElectricity},
			Breakdown: tariff.CostBreakdown{Total: decimal.NewFromInt(int64(500 + i*10))},
			Rank:      i + 1,
		}
	}
	return out
}

func testServer(comparer Comparer, results storage.ResultStore) *Server {
	return New(comparer, results, nil, 3, zerolog.Nop())
}

func postCompare(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestCompareSuccess(t *testing.T) {
	result := &engine.Result{
		Profile: tariff.ConsumptionProfile{
			Commodity:    tariff.CommodityElectricity,
			AnnualVolume: decimal.NewFromInt(2700),
		},
		Ranked: rankedFixture(5),
	}
	srv := testServer(&fakeComparer{result: result}, &fakeResults{})

	rec := postCompare(t, srv, `{"uploadId":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OK      bool `json:"ok"`
		Profile struct {
			BillType  string `json:"billType"`
			Commodity string `json:"commodity"`
		} `json:"profile"`
		Ranked   []json.RawMessage `json:"ranked"`
		Best     *json.RawMessage  `json:"best"`
		RunnerUp *json.RawMessage  `json:"runnerUp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK {
		t.Fatal("ok = false, want true")
	}
	if resp.Profile.BillType != "electricity" {
		t.Fatalf("billType = %q, want electricity", resp.Profile.BillType)
	}
	// Internal ranking keeps 5, the consumer surface shows 3.
	if len(resp.Ranked) != 3 {
		t.Fatalf("ranked len = %d, want 3", len(resp.Ranked))
	}
	if resp.Best == nil || resp.RunnerUp == nil {
		t.Fatal("best and runnerUp must be present")
	}
}

func TestCompareInvalidUploadID(t *testing.T) {
	srv := testServer(&fakeComparer{}, &fakeResults{})

	rec := postCompare(t, srv, `{"uploadId":"not-a-uuid"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompareErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"upload missing", storage.ErrUploadNotFound, http.StatusNotFound},
		{"run in progress", engine.ErrRunInProgress, http.StatusConflict},
		{"no active offers", engine.ErrNoActiveOffers, http.StatusBadGateway},
		{"no eligible offers", tariff.ErrNoEligibleOffers, http.StatusBadGateway},
		{"store unavailable", engine.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := testServer(&fakeComparer{err: tc.err}, &fakeResults{})
			rec := postCompare(t, srv, `{"uploadId":"`+uuid.NewString()+`"}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}

			var resp struct {
				OK    bool   `json:"ok"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.OK || resp.Error == "" {
				t.Fatalf("error payload = %+v, want ok=false with message", resp)
			}
		})
	}
}

func TestResultEndpoint(t *testing.T) {
	uploadID := uuid.New()
	best := "offer-a"
	results := &fakeResults{row: storage.ComparisonRow{
		UploadID:     uploadID,
		ProfileJSON:  json.RawMessage(`{"commodity":"electricity"}`),
		RankedOffers: json.RawMessage(`[]`),
		BestOfferID:  &best,
		CreatedAt:    time.Now().UTC(),
	}}
	srv := testServer(&fakeComparer{}, results)

	req := httptest.NewRequest(http.MethodGet, "/api/results/"+uploadID.String(), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp resultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BestOfferID == nil || *resp.BestOfferID != "offer-a" {
		t.Fatalf("bestOfferId = %v, want offer-a", resp.BestOfferID)
	}
}

func TestResultNotFound(t *testing.T) {
	srv := testServer(&fakeComparer{}, &fakeResults{err: storage.ErrResultNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/results/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(&fakeComparer{}, &fakeResults{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
