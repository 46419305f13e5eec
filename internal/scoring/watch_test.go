package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRankWatchlistScenario(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(48 * time.Hour)
	items := []MarketActivity{
		{
			MarketID:         "m1",
			MaxEnsemble:      0.9,
			SuspiciousVolume: decimal.NewFromInt(50_000),
			EndDate:          &end,
		},
	}
	out, err := RankWatchlist(items, WatchParams{Now: now})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 1 {
		t.Fatalf("entries=%d want 1", len(out))
	}
	want := 0.5*0.9 + 0.3*(0.5+0.2*math.Log10(5)) + 0.2*0.85
	if math.Abs(out[0].Watchability-want) > 1e-9 {
		t.Fatalf("watchability=%v want %v", out[0].Watchability, want)
	}
	if out[0].Tier != TierCritical {
		t.Fatalf("tier=%s want critical", out[0].Tier)
	}
	if out[0].DaysUntilEnd == nil || math.Abs(*out[0].DaysUntilEnd-2) > 1e-9 {
		t.Fatalf("days_until_end=%v want 2", out[0].DaysUntilEnd)
	}
}

func TestRankWatchlistFiltersAndSorts(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []MarketActivity{
		{MarketID: "low", MaxEnsemble: 0.4}, // below default min anomaly
		{MarketID: "a", MaxEnsemble: 0.6},
		{MarketID: "b", MaxEnsemble: 0.95},
	}
	out, err := RankWatchlist(items, WatchParams{Now: now})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 2 {
		t.Fatalf("entries=%d want 2", len(out))
	}
	if out[0].MarketID != "b" || out[1].MarketID != "a" {
		t.Fatalf("order=%s,%s want b,a", out[0].MarketID, out[1].MarketID)
	}
	for _, w := range out {
		if w.Watchability < 0 || w.Watchability > 1 {
			t.Fatalf("watchability %v out of [0,1]", w.Watchability)
		}
	}
}

func TestRankWatchlistLimitAndTies(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := make([]MarketActivity, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, MarketActivity{MarketID: string(rune('a' + i)), MaxEnsemble: 0.8})
	}
	out, err := RankWatchlist(items, WatchParams{Now: now, Limit: 5})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out) != 5 {
		t.Fatalf("entries=%d want 5", len(out))
	}
	// Equal scores keep input order.
	for i, w := range out {
		if w.MarketID != string(rune('a'+i)) {
			t.Fatalf("tie order broken at %d: %s", i, w.MarketID)
		}
	}
}

func TestRankWatchlistRejectsBadParams(t *testing.T) {
	if _, err := RankWatchlist(nil, WatchParams{Limit: -1}); err == nil {
		t.Fatalf("negative limit accepted")
	}
	if _, err := RankWatchlist(nil, WatchParams{MinAnomaly: 1.5}); err == nil {
		t.Fatalf("out-of-range min anomaly accepted")
	}
}

func TestRankWatchlistDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []MarketActivity{
		{MarketID: "a", MaxEnsemble: 0.7, SuspiciousVolume: decimal.NewFromInt(1200)},
		{MarketID: "b", MaxEnsemble: 0.9, SuspiciousVolume: decimal.NewFromInt(300)},
		{MarketID: "c", MaxEnsemble: 0.55},
	}
	first, err := RankWatchlist(items, WatchParams{Now: now})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, err := RankWatchlist(items, WatchParams{Now: now})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MarketID != second[i].MarketID || first[i].Watchability != second[i].Watchability {
			t.Fatalf("runs differ at %d", i)
		}
	}
}
