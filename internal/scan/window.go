package scan

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"polywatch/internal/scoring"
)

// Window scans a flat collection of trade events against a reference event:
// it groups trades by market outcome token, aggregates volume, whale and
// timing metrics per group, scores each mapped group for discovery, and runs
// the per-wallet suspicion sub-scan inside every ranked group. The scan is a
// pure function of its inputs; identical inputs always produce identical,
// deterministically ranked output.
func Window(ctx context.Context, events []TradeEvent, tokens TokenResolver, params Params) (Result, error) {
	params, err := params.validate()
	if err != nil {
		return Result{}, err
	}

	groups := map[string]*groupAcc{}
	order := make([]string, 0)

	for i, ev := range events {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		tokenID := marketTokenID(ev)
		if tokenID == "" {
			continue
		}
		g, ok := groups[tokenID]
		if !ok {
			g = newGroupAcc(tokenID)
			groups[tokenID] = g
			order = append(order, tokenID)
		}
		g.add(ev, params)
	}

	result := Result{TotalEvents: len(events)}
	candidates := make([]MarketCandidate, 0, len(order))
	for _, tokenID := range order {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		g := groups[tokenID]
		result.MalformedAmounts += g.malformed

		ref, mapped := tokens.Resolve(tokenID)
		if !mapped {
			result.UnmappedTokens++
			continue
		}
		result.MappedGroups++
		candidates = append(candidates, g.finish(ref, params))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > params.TopMarkets {
		candidates = candidates[:params.TopMarkets]
	}
	result.Markets = candidates
	result.Wallets = dedupWallets(candidates)
	return result, nil
}

// marketTokenID picks the non-collateral leg of a fill. The collateral leg
// always carries asset id "0".
func marketTokenID(ev TradeEvent) string {
	if ev.MakerAssetID == CollateralAssetID {
		return ev.TakerAssetID
	}
	return ev.MakerAssetID
}

type groupAcc struct {
	tokenID   string
	malformed int

	tradeCount     int
	totalVolume    decimal.Decimal
	whaleCount     int
	whaleVolume    decimal.Decimal
	preEventVolume decimal.Decimal

	walletSet map[string]struct{}

	dayVolume map[string]decimal.Decimal
	dayOrder  []string

	wallets     map[string]*walletAcc
	walletOrder []string
}

type walletAcc struct {
	address            string
	totalVolume        decimal.Decimal
	tradeCount         int
	whaleTradeCount    int
	preEventVolume     decimal.Decimal
	preEventTradeCount int
	firstTradeAt       time.Time
	lastTradeAt        time.Time
	latestPreEvent     time.Time
}

func newGroupAcc(tokenID string) *groupAcc {
	return &groupAcc{
		tokenID:   tokenID,
		walletSet: map[string]struct{}{},
		dayVolume: map[string]decimal.Decimal{},
		wallets:   map[string]*walletAcc{},
	}
}

func (g *groupAcc) add(ev TradeEvent, params Params) {
	volume, ok := VolumeUSD(ev)
	if !ok {
		g.malformed++
	}

	g.tradeCount++
	g.totalVolume = g.totalVolume.Add(volume)

	whale := isWhale(volume)
	if whale {
		g.whaleCount++
		g.whaleVolume = g.whaleVolume.Add(volume)
	}

	ts := ev.Timestamp
	if inWindow(ts, params.EventTime.Add(-preEventMetricWindow), params.EventTime) {
		g.preEventVolume = g.preEventVolume.Add(volume)
	}

	day := ts.UTC().Format("2006-01-02")
	if _, seen := g.dayVolume[day]; !seen {
		g.dayOrder = append(g.dayOrder, day)
	}
	g.dayVolume[day] = g.dayVolume[day].Add(volume)

	for _, addr := range touchingWallets(ev) {
		g.walletSet[addr] = struct{}{}
		w, seen := g.wallets[addr]
		if !seen {
			w = &walletAcc{address: addr, firstTradeAt: ts, lastTradeAt: ts}
			g.wallets[addr] = w
			g.walletOrder = append(g.walletOrder, addr)
		}
		w.tradeCount++
		w.totalVolume = w.totalVolume.Add(volume)
		if whale {
			w.whaleTradeCount++
		}
		if inWindow(ts, params.EventTime.Add(-preEventScanWindow), params.EventTime) {
			w.preEventVolume = w.preEventVolume.Add(volume)
			w.preEventTradeCount++
		}
		if ts.Before(w.firstTradeAt) {
			w.firstTradeAt = ts
		}
		if ts.After(w.lastTradeAt) {
			w.lastTradeAt = ts
		}
		if ts.Before(params.EventTime) && ts.After(w.latestPreEvent) {
			w.latestPreEvent = ts
		}
	}
}

func (g *groupAcc) finish(ref MarketRef, params Params) MarketCandidate {
	cand := MarketCandidate{
		TokenID:        g.tokenID,
		MarketID:       ref.MarketID,
		ConditionID:    ref.ConditionID,
		Question:       ref.Question,
		OutcomeIndex:   ref.OutcomeIndex,
		TradeCount:     g.tradeCount,
		TotalVolume:    g.totalVolume,
		UniqueWallets:  len(g.walletSet),
		WhaleCount:     g.whaleCount,
		WhaleVolume:    g.whaleVolume,
		PreEventVolume: g.preEventVolume,
		PeakDay:        g.peakDay(),
	}
	cand.Score = scoring.DiscoveryScore(scoring.MarketMetrics{
		TradeCount:     cand.TradeCount,
		TotalVolume:    cand.TotalVolume,
		UniqueWallets:  cand.UniqueWallets,
		WhaleCount:     cand.WhaleCount,
		PreEventVolume: cand.PreEventVolume,
	}, params.Discovery)
	cand.SuspiciousWallets = g.suspiciousWallets(params)
	return cand
}

// peakDay returns the UTC calendar day with the highest volume; ties keep
// the earlier-seen day.
func (g *groupAcc) peakDay() string {
	best := ""
	bestVol := decimal.Zero
	for _, day := range g.dayOrder {
		if v := g.dayVolume[day]; best == "" || v.GreaterThan(bestVol) {
			best = day
			bestVol = v
		}
	}
	return best
}

func (g *groupAcc) suspiciousWallets(params Params) []WalletSuspicion {
	out := make([]WalletSuspicion, 0)
	for _, addr := range g.walletOrder {
		w := g.wallets[addr]
		entry := WalletSuspicion{
			Address:            w.address,
			TotalVolume:        w.totalVolume,
			TradeCount:         w.tradeCount,
			WhaleTradeCount:    w.whaleTradeCount,
			PreEventVolume:     w.preEventVolume,
			PreEventTradeCount: w.preEventTradeCount,
			FirstTradeAt:       w.firstTradeAt,
			LastTradeAt:        w.lastTradeAt,
			HoursBeforeEvent:   hoursBefore(w.latestPreEvent, params.EventTime),
		}
		entry.SuspicionScore = scoring.SuspicionScore(scoring.WalletMetrics{
			TotalVolume:      entry.TotalVolume,
			WhaleTradeCount:  entry.WhaleTradeCount,
			PreEventVolume:   entry.PreEventVolume,
			HoursBeforeEvent: entry.HoursBeforeEvent,
		}, params.Suspicion)
		if entry.SuspicionScore > params.WalletMinScore {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuspicionScore > out[j].SuspicionScore
	})
	if len(out) > params.WalletLimit {
		out = out[:params.WalletLimit]
	}
	return out
}

// dedupWallets folds wallets across ranked market groups keyed by address,
// keeping the maximum suspicion score seen, then re-ranks descending.
func dedupWallets(markets []MarketCandidate) []WalletSuspicion {
	byAddr := map[string]int{}
	out := make([]WalletSuspicion, 0)
	for _, m := range markets {
		for _, w := range m.SuspiciousWallets {
			idx, seen := byAddr[w.Address]
			if !seen {
				byAddr[w.Address] = len(out)
				out = append(out, w)
				continue
			}
			if w.SuspicionScore > out[idx].SuspicionScore {
				out[idx] = w
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuspicionScore > out[j].SuspicionScore
	})
	return out
}

// VolumeUSD converts a fill to its collateral-denominated USD value:
// the smaller of the two legs after minor-unit conversion. Malformed
// amounts degrade to zero volume, reported via the ok flag.
func VolumeUSD(ev TradeEvent) (decimal.Decimal, bool) {
	maker, err := decimal.NewFromString(ev.MakerAmountFilled)
	if err != nil {
		return decimal.Zero, false
	}
	taker, err := decimal.NewFromString(ev.TakerAmountFilled)
	if err != nil {
		return decimal.Zero, false
	}
	v := decimal.Min(maker, taker).Shift(-minorUnitScale)
	if v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

// whaleThresholdUSD classifies whale trades: collateral value strictly
// above $1,000.
var whaleThresholdUSD = decimal.NewFromInt(1000)

func isWhale(volume decimal.Decimal) bool {
	return volume.GreaterThan(whaleThresholdUSD)
}

func touchingWallets(ev TradeEvent) []string {
	if ev.Maker == "" && ev.Taker == "" {
		return nil
	}
	if ev.Maker == ev.Taker || ev.Taker == "" {
		return []string{ev.Maker}
	}
	if ev.Maker == "" {
		return []string{ev.Taker}
	}
	return []string{ev.Maker, ev.Taker}
}

func inWindow(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

func hoursBefore(latestPreEvent, eventTime time.Time) *float64 {
	if latestPreEvent.IsZero() {
		return nil
	}
	h := eventTime.Sub(latestPreEvent).Hours()
	return &h
}
