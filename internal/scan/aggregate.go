package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"polywatch/internal/scoring"
)

// ScoredTrade is one trade already scored by the external baseline model,
// as consumed in active-market watch mode. Ensemble is in [0,1]; higher
// means more anomalous.
type ScoredTrade struct {
	MarketID    string
	ConditionID string
	Question    string
	Wallet      string
	VolumeUSD   decimal.Decimal
	Ensemble    float64
	EndDate     *time.Time
}

// AggregateParams configure active-market aggregation. A trade counts as
// suspicious when its ensemble score reaches SuspiciousThreshold.
type AggregateParams struct {
	SuspiciousThreshold float64 // default 0.7
}

const defaultSuspiciousThreshold = 0.7

func (p AggregateParams) validate() (AggregateParams, error) {
	if p.SuspiciousThreshold < 0 || p.SuspiciousThreshold > 1 {
		return p, fmt.Errorf("aggregate params: suspicious threshold must be in [0,1], got %v", p.SuspiciousThreshold)
	}
	if p.SuspiciousThreshold == 0 {
		p.SuspiciousThreshold = defaultSuspiciousThreshold
	}
	return p, nil
}

// AggregateScored folds per-trade anomaly scores into per-market activity
// aggregates for watchlist ranking. Output order follows first appearance
// of each market in the input.
func AggregateScored(ctx context.Context, trades []ScoredTrade, params AggregateParams) ([]scoring.MarketActivity, error) {
	params, err := params.validate()
	if err != nil {
		return nil, err
	}

	type marketAcc struct {
		activity    scoring.MarketActivity
		ensembleSum float64
		tradeCount  int
		wallets     map[string]struct{}
		topEnsemble float64
	}
	accs := map[string]*marketAcc{}
	order := make([]string, 0)

	for i, tr := range trades {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if tr.MarketID == "" {
			continue
		}
		acc, ok := accs[tr.MarketID]
		if !ok {
			acc = &marketAcc{
				activity: scoring.MarketActivity{
					MarketID:         tr.MarketID,
					ConditionID:      tr.ConditionID,
					Question:         tr.Question,
					SuspiciousVolume: decimal.Zero,
				},
				wallets: map[string]struct{}{},
			}
			accs[tr.MarketID] = acc
			order = append(order, tr.MarketID)
		}
		acc.tradeCount++
		acc.ensembleSum += tr.Ensemble
		if tr.Ensemble > acc.activity.MaxEnsemble {
			acc.activity.MaxEnsemble = tr.Ensemble
		}
		if tr.Ensemble >= params.SuspiciousThreshold {
			acc.activity.SuspiciousTradeCount++
			acc.activity.SuspiciousVolume = acc.activity.SuspiciousVolume.Add(tr.VolumeUSD)
		}
		if tr.Wallet != "" {
			acc.wallets[tr.Wallet] = struct{}{}
			if tr.Ensemble > acc.topEnsemble || acc.activity.TopWallet == "" {
				acc.topEnsemble = tr.Ensemble
				acc.activity.TopWallet = tr.Wallet
			}
		}
		if acc.activity.EndDate == nil && tr.EndDate != nil {
			acc.activity.EndDate = tr.EndDate
		}
	}

	out := make([]scoring.MarketActivity, 0, len(order))
	for _, marketID := range order {
		acc := accs[marketID]
		if acc.tradeCount > 0 {
			acc.activity.AvgEnsemble = acc.ensembleSum / float64(acc.tradeCount)
		}
		acc.activity.UniqueWallets = len(acc.wallets)
		out = append(out, acc.activity)
	}
	return out, nil
}
