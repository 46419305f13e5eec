package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"polywatch/internal/models"
	"polywatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Catalog ----------------------------------------------------------------

func (s *Store) UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"condition_id",
			"slug",
			"question",
			"category",
			"end_date",
			"volume",
			"liquidity",
			"active",
			"closed",
			"last_seen_at",
			"raw_json",
		}),
	}), items, 200)
}

func (s *Store) UpsertTokensTx(ctx context.Context, tx *gorm.DB, items []models.Token) error {
	if len(items) == 0 {
		return nil
	}
	return createInBatches(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"market_id",
			"outcome",
			"outcome_index",
			"side",
			"last_seen_at",
			"raw_json",
		}),
	}), items, 300)
}

func (s *Store) ListMarketsByIDs(ctx context.Context, marketIDs []string) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	marketIDs = cleanStrings(marketIDs)
	if len(marketIDs) == 0 {
		return nil, nil
	}
	var items []models.Market
	if err := s.db.WithContext(ctx).
		Where("id IN ?", marketIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTokensByIDs(ctx context.Context, tokenIDs []string) ([]models.Token, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	tokenIDs = cleanStrings(tokenIDs)
	if len(tokenIDs) == 0 {
		return nil, nil
	}
	var items []models.Token
	if err := s.db.WithContext(ctx).
		Where("id IN ?", tokenIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTokensByMarketIDs(ctx context.Context, marketIDs []string) ([]models.Token, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	marketIDs = cleanStrings(marketIDs)
	if len(marketIDs) == 0 {
		return nil, nil
	}
	var items []models.Token
	if err := s.db.WithContext(ctx).
		Where("market_id IN ?", marketIDs).
		Order("market_id asc, outcome_index asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListActiveTokenIDs(ctx context.Context, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	query := s.db.WithContext(ctx).
		Table("catalog_tokens AS t").
		Select("t.id").
		Joins("JOIN catalog_markets AS m ON m.id = t.market_id").
		Where("m.active AND NOT m.closed").
		Order("m.volume desc NULLS LAST, t.id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ListClosedMarketsPendingResolution(ctx context.Context, limit int) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Market
	if err := s.db.WithContext(ctx).
		Where("closed AND resolved_outcome IS NULL").
		Order("end_date asc NULLS LAST, id asc").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateMarketResolution(ctx context.Context, marketID string, outcome int, resolvedAt time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	marketID = strings.TrimSpace(marketID)
	if marketID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", marketID).
		Updates(map[string]any{
			"resolved_outcome": outcome,
			"resolved_at":      resolvedAt,
		}).Error
}

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error {
	if state == nil {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

// --- Trades -----------------------------------------------------------------

func (s *Store) UpsertTrades(ctx context.Context, items []models.Trade) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}), items, 500)
}

func (s *Store) ListTradesBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if !from.IsZero() {
		query = query.Where("trade_ts >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("trade_ts < ?", to)
	}
	var items []models.Trade
	if err := query.
		Order("trade_ts asc, id asc").
		Limit(normalizeLimit(limit, 10000)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradesByWallet(ctx context.Context, wallet string, limit int) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, nil
	}
	var items []models.Trade
	if err := s.db.WithContext(ctx).
		Where("maker = ? OR taker = ?", wallet, wallet).
		Order("trade_ts asc, id asc").
		Limit(normalizeLimit(limit, 5000)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradesByWallets(ctx context.Context, wallets []string, limit int) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallets = cleanStrings(wallets)
	if len(wallets) == 0 {
		return nil, nil
	}
	var items []models.Trade
	if err := s.db.WithContext(ctx).
		Where("maker IN ? OR taker IN ?", wallets, wallets).
		Order("trade_ts asc, id asc").
		Limit(normalizeLimit(limit, 50000)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWalletMarketPairs(ctx context.Context, marketIDs []string, excludeWallet string) ([]repository.WalletMarket, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	marketIDs = cleanStrings(marketIDs)
	if len(marketIDs) == 0 {
		return nil, nil
	}
	excludeWallet = strings.TrimSpace(excludeWallet)

	collect := func(side string) ([]repository.WalletMarket, error) {
		query := s.db.WithContext(ctx).
			Table("trades AS t").
			Select("DISTINCT t."+side+" AS wallet, tok.market_id AS market_id").
			Joins("JOIN catalog_tokens AS tok ON tok.id = t.token_id").
			Where("tok.market_id IN ?", marketIDs)
		if excludeWallet != "" {
			query = query.Where("t."+side+" <> ?", excludeWallet)
		}
		var rows []repository.WalletMarket
		if err := query.Order("wallet asc, market_id asc").Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	makers, err := collect("maker")
	if err != nil {
		return nil, err
	}
	takers, err := collect("taker")
	if err != nil {
		return nil, err
	}
	seen := make(map[repository.WalletMarket]struct{}, len(makers)+len(takers))
	out := make([]repository.WalletMarket, 0, len(makers)+len(takers))
	for _, row := range append(makers, takers...) {
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out, nil
}

// --- Anomaly scores ---------------------------------------------------------

func (s *Store) UpsertTradeScores(ctx context.Context, items []models.TradeScore) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ensemble",
			"insider_probability",
			"model_version",
			"scored_at",
		}),
	}), items, 500)
}

func (s *Store) ListScoredTrades(ctx context.Context, params repository.ScoredTradesParams) ([]repository.ScoredTradeRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("trades AS t").
		Select(`
			t.id AS trade_id,
			t.token_id AS token_id,
			t.maker AS maker,
			t.taker AS taker,
			t.maker_asset_id AS maker_asset_id,
			t.taker_asset_id AS taker_asset_id,
			t.maker_amount_filled AS maker_amount_filled,
			t.taker_amount_filled AS taker_amount_filled,
			t.trade_ts AS trade_ts,
			s.ensemble AS ensemble,
			m.id AS market_id,
			m.condition_id AS condition_id,
			m.question AS question,
			m.end_date AS end_date
		`).
		Joins("JOIN trade_scores AS s ON s.trade_id = t.id").
		Joins("JOIN catalog_tokens AS tok ON tok.id = t.token_id").
		Joins("JOIN catalog_markets AS m ON m.id = tok.market_id")
	if !params.Since.IsZero() {
		query = query.Where("t.trade_ts >= ?", params.Since)
	}
	if params.ActiveOnly {
		query = query.Where("m.active AND NOT m.closed")
	}
	var rows []repository.ScoredTradeRow
	if err := query.
		Order("t.trade_ts asc, t.id asc").
		Limit(normalizeLimit(params.Limit, 50000)).
		Offset(normalizeOffset(params.Offset)).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) WalletAnomalyAverages(ctx context.Context, wallets []string) (map[string]float64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	wallets = cleanStrings(wallets)
	if len(wallets) == 0 {
		return map[string]float64{}, nil
	}

	collect := func(side string) ([]ensembleAgg, error) {
		var rows []ensembleAgg
		err := s.db.WithContext(ctx).
			Table("trades AS t").
			Select("t."+side+" AS wallet, SUM(s.ensemble) AS sum, COUNT(*) AS count").
			Joins("JOIN trade_scores AS s ON s.trade_id = t.id").
			Where("t."+side+" IN ?", wallets).
			Group("t." + side).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	makers, err := collect("maker")
	if err != nil {
		return nil, err
	}
	takers, err := collect("taker")
	if err != nil {
		return nil, err
	}
	return mergeEnsembleAverages(makers, takers), nil
}

type ensembleAgg struct {
	Wallet string
	Sum    float64
	Count  int64
}

// mergeEnsembleAverages combines per-side sums into one mean per wallet,
// weighted by row count so a side with more fills counts proportionally.
func mergeEnsembleAverages(sides ...[]ensembleAgg) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int64)
	for _, rows := range sides {
		for _, r := range rows {
			sums[r.Wallet] += r.Sum
			counts[r.Wallet] += r.Count
		}
	}
	out := make(map[string]float64, len(sums))
	for wallet, n := range counts {
		if n > 0 {
			out[wallet] = sums[wallet] / float64(n)
		}
	}
	return out
}

// --- Watchlist snapshots ----------------------------------------------------

func (s *Store) ReplaceMarketWatches(ctx context.Context, runID string, items []models.MarketWatch) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id <> ?", runID).Delete(&models.MarketWatch{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return createInBatches(tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "market_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"run_id",
				"condition_id",
				"question",
				"max_ensemble",
				"avg_ensemble",
				"suspicious_trade_count",
				"suspicious_volume",
				"unique_wallets",
				"days_until_end",
				"watchability",
				"tier",
				"top_wallet",
				"scored_at",
			}),
		}), items, 200)
	})
}

func (s *Store) ListMarketWatches(ctx context.Context, limit int) ([]models.MarketWatch, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.MarketWatch
	if err := s.db.WithContext(ctx).
		Order("watchability desc, market_id asc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Reference cases --------------------------------------------------------

func (s *Store) InsertReferenceCase(ctx context.Context, item *models.ReferenceCase) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetReferenceCaseByID(ctx context.Context, id string) (*models.ReferenceCase, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ReferenceCase
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListReferenceCases(ctx context.Context, limit, offset int) ([]models.ReferenceCase, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ReferenceCase
	if err := s.db.WithContext(ctx).
		Order("event_at desc, id asc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateReferenceCaseScan(ctx context.Context, id string, result datatypes.JSON, scannedAt time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.ReferenceCase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      models.ReferenceCaseStatusScanned,
			"scan_result": result,
			"scanned_at":  scannedAt,
		}).Error
}

// --- Helpers ----------------------------------------------------------------

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
