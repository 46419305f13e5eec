package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"polywatch/internal/config"
	"polywatch/internal/models"
	"polywatch/internal/repository"
	"polywatch/internal/scan"
	"polywatch/internal/scoring"
)

// WatchService folds recent scored trades into per-market aggregates, ranks
// them by watchability and persists the result as the current watchlist.
type WatchService struct {
	Repo   repository.Repository
	Config config.WatchConfig
	Logger *zap.Logger
}

type WatchRunResult struct {
	RunID        string    `json:"run_id"`
	ScoredTrades int       `json:"scored_trades"`
	Markets      int       `json:"markets"`
	Watchlist    int       `json:"watchlist"`
	ScoredAt     time.Time `json:"scored_at"`
}

func (s *WatchService) RunOnce(ctx context.Context) (WatchRunResult, error) {
	result := WatchRunResult{}
	if s == nil || s.Repo == nil {
		return result, nil
	}
	now := time.Now().UTC()
	lookback := s.Config.Lookback
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}

	rows, err := s.Repo.ListScoredTrades(ctx, repository.ScoredTradesParams{
		Since:      now.Add(-lookback),
		ActiveOnly: true,
	})
	if err != nil {
		return result, err
	}
	result.ScoredTrades = len(rows)

	trades := make([]scan.ScoredTrade, 0, len(rows))
	for _, row := range rows {
		volume, _ := scan.VolumeUSD(scan.TradeEvent{
			MakerAssetID:      row.MakerAssetID,
			TakerAssetID:      row.TakerAssetID,
			MakerAmountFilled: row.MakerAmountFilled,
			TakerAmountFilled: row.TakerAmountFilled,
		})
		wallet := strings.TrimSpace(row.Taker)
		if wallet == "" {
			wallet = strings.TrimSpace(row.Maker)
		}
		trades = append(trades, scan.ScoredTrade{
			MarketID:    row.MarketID,
			ConditionID: row.ConditionID,
			Question:    row.Question,
			Wallet:      wallet,
			VolumeUSD:   volume,
			Ensemble:    row.Ensemble,
			EndDate:     row.EndDate,
		})
	}

	activities, err := scan.AggregateScored(ctx, trades, scan.AggregateParams{
		SuspiciousThreshold: s.Config.SuspiciousThreshold,
	})
	if err != nil {
		return result, err
	}
	result.Markets = len(activities)

	watchlist, err := scoring.RankWatchlist(activities, scoring.WatchParams{
		Limit:      s.Config.Limit,
		MinAnomaly: s.Config.MinAnomaly,
		Now:        now,
	})
	if err != nil {
		return result, err
	}
	result.Watchlist = len(watchlist)
	result.ScoredAt = now
	result.RunID = uuid.NewString()

	items := make([]models.MarketWatch, 0, len(watchlist))
	for _, entry := range watchlist {
		items = append(items, models.MarketWatch{
			MarketID:             entry.MarketID,
			RunID:                result.RunID,
			ConditionID:          entry.ConditionID,
			Question:             entry.Question,
			MaxEnsemble:          entry.MaxEnsemble,
			AvgEnsemble:          entry.AvgEnsemble,
			SuspiciousTradeCount: entry.SuspiciousTradeCount,
			SuspiciousVolume:     entry.SuspiciousVolume,
			UniqueWallets:        entry.UniqueWallets,
			DaysUntilEnd:         entry.DaysUntilEnd,
			Watchability:         entry.Watchability,
			Tier:                 string(entry.Tier),
			TopWallet:            entry.TopWallet,
			ScoredAt:             now,
		})
	}
	if err := s.Repo.ReplaceMarketWatches(ctx, result.RunID, items); err != nil {
		return result, err
	}
	if s.Logger != nil {
		s.Logger.Info("watch run done",
			zap.String("run_id", result.RunID),
			zap.Int("scored_trades", result.ScoredTrades),
			zap.Int("markets", result.Markets),
			zap.Int("watchlist", result.Watchlist),
		)
	}
	return result, nil
}
