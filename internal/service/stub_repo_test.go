package service

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"polywatch/internal/models"
	"polywatch/internal/repository"
)

// stubRepo is an in-memory repository.Repository for service tests.
type stubRepo struct {
	scored  []repository.ScoredTradeRow
	trades  []models.Trade
	tokens  map[string]models.Token
	markets map[string]models.Market
	pairs   []repository.WalletMarket
	avgs    map[string]float64
	cases   map[string]*models.ReferenceCase

	watchRunID  string
	watches     []models.MarketWatch
	scanUpdated map[string]datatypes.JSON
	resolutions map[string]int
	inserted    []models.Trade
	syncStates  map[string]*models.SyncState
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		tokens:      map[string]models.Token{},
		markets:     map[string]models.Market{},
		avgs:        map[string]float64{},
		cases:       map[string]*models.ReferenceCase{},
		scanUpdated: map[string]datatypes.JSON{},
		resolutions: map[string]int{},
		syncStates:  map[string]*models.SyncState{},
	}
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	for _, m := range items {
		r.markets[m.ID] = m
	}
	return nil
}

func (r *stubRepo) UpsertTokensTx(ctx context.Context, tx *gorm.DB, items []models.Token) error {
	for _, t := range items {
		r.tokens[t.ID] = t
	}
	return nil
}

func (r *stubRepo) ListMarketsByIDs(ctx context.Context, marketIDs []string) ([]models.Market, error) {
	out := make([]models.Market, 0, len(marketIDs))
	for _, id := range marketIDs {
		if m, ok := r.markets[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRepo) ListTokensByIDs(ctx context.Context, tokenIDs []string) ([]models.Token, error) {
	out := make([]models.Token, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if t, ok := r.tokens[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) ListTokensByMarketIDs(ctx context.Context, marketIDs []string) ([]models.Token, error) {
	set := map[string]struct{}{}
	for _, id := range marketIDs {
		set[id] = struct{}{}
	}
	var out []models.Token
	for _, t := range r.tokens {
		if _, ok := set[t.MarketID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) ListActiveTokenIDs(ctx context.Context, limit int) ([]string, error) {
	out := make([]string, 0, len(r.tokens))
	for id := range r.tokens {
		out = append(out, id)
	}
	return out, nil
}

func (r *stubRepo) ListClosedMarketsPendingResolution(ctx context.Context, limit int) ([]models.Market, error) {
	var out []models.Market
	for _, m := range r.markets {
		if m.Closed && m.ResolvedOutcome == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateMarketResolution(ctx context.Context, marketID string, outcome int, resolvedAt time.Time) error {
	r.resolutions[marketID] = outcome
	return nil
}

func (r *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	return r.syncStates[scope], nil
}

func (r *stubRepo) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	r.syncStates[state.Scope] = state
	return nil
}

func (r *stubRepo) UpsertTrades(ctx context.Context, items []models.Trade) error {
	r.inserted = append(r.inserted, items...)
	return nil
}

func (r *stubRepo) ListTradesBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]models.Trade, error) {
	var filtered []models.Trade
	for _, t := range r.trades {
		if !t.TradeTS.Before(from) && t.TradeTS.Before(to) {
			filtered = append(filtered, t)
		}
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (r *stubRepo) ListTradesByWallet(ctx context.Context, wallet string, limit int) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range r.trades {
		if t.Maker == wallet || t.Taker == wallet {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) ListTradesByWallets(ctx context.Context, wallets []string, limit int) ([]models.Trade, error) {
	set := map[string]struct{}{}
	for _, w := range wallets {
		set[w] = struct{}{}
	}
	var out []models.Trade
	for _, t := range r.trades {
		if _, ok := set[t.Maker]; ok {
			out = append(out, t)
			continue
		}
		if _, ok := set[t.Taker]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubRepo) ListWalletMarketPairs(ctx context.Context, marketIDs []string, excludeWallet string) ([]repository.WalletMarket, error) {
	return r.pairs, nil
}

func (r *stubRepo) UpsertTradeScores(ctx context.Context, items []models.TradeScore) error {
	return nil
}

func (r *stubRepo) ListScoredTrades(ctx context.Context, params repository.ScoredTradesParams) ([]repository.ScoredTradeRow, error) {
	return r.scored, nil
}

func (r *stubRepo) WalletAnomalyAverages(ctx context.Context, wallets []string) (map[string]float64, error) {
	return r.avgs, nil
}

func (r *stubRepo) ReplaceMarketWatches(ctx context.Context, runID string, items []models.MarketWatch) error {
	r.watchRunID = runID
	r.watches = items
	return nil
}

func (r *stubRepo) ListMarketWatches(ctx context.Context, limit int) ([]models.MarketWatch, error) {
	return r.watches, nil
}

func (r *stubRepo) InsertReferenceCase(ctx context.Context, item *models.ReferenceCase) error {
	r.cases[item.ID] = item
	return nil
}

func (r *stubRepo) GetReferenceCaseByID(ctx context.Context, id string) (*models.ReferenceCase, error) {
	return r.cases[id], nil
}

func (r *stubRepo) ListReferenceCases(ctx context.Context, limit, offset int) ([]models.ReferenceCase, error) {
	var out []models.ReferenceCase
	for _, item := range r.cases {
		out = append(out, *item)
	}
	return out, nil
}

func (r *stubRepo) UpdateReferenceCaseScan(ctx context.Context, id string, result datatypes.JSON, scannedAt time.Time) error {
	r.scanUpdated[id] = result
	return nil
}

var _ repository.Repository = (*stubRepo)(nil)
