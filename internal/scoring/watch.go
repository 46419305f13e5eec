package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MarketActivity is the per-market aggregate of already-scored trades for a
// currently-open market. Ensemble values come from the external baseline
// model and are assumed to be in [0,1].
type MarketActivity struct {
	MarketID             string
	ConditionID          string
	Question             string
	MaxEnsemble          float64
	AvgEnsemble          float64
	SuspiciousTradeCount int
	SuspiciousVolume     decimal.Decimal
	UniqueWallets        int
	EndDate              *time.Time
	TopWallet            string
}

// MarketWatch is one ranked watchlist entry.
type MarketWatch struct {
	MarketActivity

	DaysUntilEnd *float64
	Watchability float64
	Tier         Tier
}

// WatchParams control watchlist ranking. Zero values take defaults; negative
// values are rejected.
type WatchParams struct {
	Limit      int     // max entries returned, default 25
	MinAnomaly float64 // markets with MaxEnsemble below this are excluded, default 0.5
	Now        time.Time
	Weights    WatchWeights
}

const (
	defaultWatchLimit      = 25
	defaultWatchMinAnomaly = 0.5
)

func (p WatchParams) validate() (WatchParams, error) {
	if p.Limit < 0 {
		return p, fmt.Errorf("watch params: limit must be positive, got %d", p.Limit)
	}
	if p.Limit == 0 {
		p.Limit = defaultWatchLimit
	}
	if p.MinAnomaly < 0 || p.MinAnomaly > 1 {
		return p, fmt.Errorf("watch params: min anomaly must be in [0,1], got %v", p.MinAnomaly)
	}
	if p.MinAnomaly == 0 {
		p.MinAnomaly = defaultWatchMinAnomaly
	}
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}
	if p.Weights == (WatchWeights{}) {
		p.Weights = DefaultWatchWeights()
	}
	return p, nil
}

// RankWatchlist scores open markets by how urgently they warrant human
// review and returns them ranked descending by watchability. Markets whose
// max ensemble score is below MinAnomaly are excluded before scoring. Ties
// preserve input order.
func RankWatchlist(items []MarketActivity, params WatchParams) ([]MarketWatch, error) {
	params, err := params.validate()
	if err != nil {
		return nil, err
	}

	out := make([]MarketWatch, 0, len(items))
	for _, item := range items {
		if item.MaxEnsemble < params.MinAnomaly {
			continue
		}
		days := daysUntil(item.EndDate, params.Now)
		w := params.Weights
		score := w.Anomaly*Clamp01(item.MaxEnsemble) +
			w.Volume*VolumeSignal(item.SuspiciousVolume.InexactFloat64()) +
			w.Urgency*UrgencySignal(days)
		out = append(out, MarketWatch{
			MarketActivity: item,
			DaysUntilEnd:   days,
			Watchability:   Clamp01(score),
			Tier:           TierFor(score),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Watchability > out[j].Watchability
	})
	if len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func daysUntil(end *time.Time, now time.Time) *float64 {
	if end == nil {
		return nil
	}
	d := end.Sub(now).Hours() / 24
	return &d
}
