package tariff

import (
	"errors"
	"testing"
)

func candidate(id, total string) Candidate {
	return Candidate{
		Offer:     Offer{ID: id, Commodity: CommodityElectricity, Structure: StructureFlat, IsActive: true},
		Breakdown: CostBreakdown{Total: dec(total)},
	}
}

func TestRankOrdersByTotal(t *testing.T) {
	ranked, err := Rank([]Candidate{
		candidate("c", "900"),
		candidate("a", "600"),
		candidate("b", "750"),
	}, 5)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Breakdown.Total.GreaterThan(ranked[i].Breakdown.Total) {
			t.Fatalf("ranking not ascending at %d: %s > %s", i, ranked[i-1].Breakdown.Total, ranked[i].Breakdown.Total)
		}
	}
	if ranked[0].Offer.ID != "a" || ranked[0].Rank != 1 {
		t.Fatalf("best = %s rank %d, want a rank 1", ranked[0].Offer.ID, ranked[0].Rank)
	}
}

func TestRankTieBreaksOnID(t *testing.T) {
	for run := 0; run < 10; run++ {
		ranked, err := Rank([]Candidate{
			candidate("zeta", "500"),
			candidate("alpha", "500"),
			candidate("mid", "500"),
		}, 5)
		if err != nil {
			t.Fatalf("rank failed: %v", err)
		}
		if ranked[0].Offer.ID != "alpha" || ranked[1].Offer.ID != "mid" || ranked[2].Offer.ID != "zeta" {
			t.Fatalf("run %d: tie-break order %s/%s/%s, want alpha/mid/zeta", run, ranked[0].Offer.ID, ranked[1].Offer.ID, ranked[2].Offer.ID)
		}
	}
}

func TestRankDenseRanksAndTruncation(t *testing.T) {
	candidates := []Candidate{
		candidate("a", "100"),
		candidate("b", "200"),
		candidate("c", "300"),
		candidate("d", "400"),
		candidate("e", "500"),
		candidate("f", "600"),
	}

	ranked, err := Rank(candidates, 5)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(ranked) != 5 {
		t.Fatalf("len = %d, want truncation to 5", len(ranked))
	}
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Fatalf("rank[%d] = %d, want dense 1-based ranks", i, r.Rank)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	candidates := []Candidate{
		candidate("b", "200"),
		candidate("a", "100"),
	}

	if _, err := Rank(candidates, 5); err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if candidates[0].Offer.ID != "b" {
		t.Fatal("input slice order must be preserved")
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	if _, err := Rank(nil, 5); !errors.Is(err, ErrNoEligibleOffers) {
		t.Fatalf("err = %v, want ErrNoEligibleOffers", err)
	}
}
