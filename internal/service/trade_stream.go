package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"polywatch/internal/client/polymarket/clob"
	"polywatch/internal/models"
	"polywatch/internal/repository"
)

// TradeStreamService tails the CLOB market channel and persists raw fills.
// Scoring is batch; this service only keeps the trade table current.
type TradeStreamService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type TradeStreamOptions struct {
	URL             string
	AssetIDs        []string
	RefreshInterval time.Duration
	MaxAssets       int
}

func (s *TradeStreamService) Run(ctx context.Context, opts TradeStreamOptions) error {
	if s.Logger != nil {
		s.Logger.Info("trade stream starting",
			zap.String("url", opts.URL),
			zap.Duration("refresh_interval", opts.RefreshInterval),
			zap.Int("max_assets", opts.MaxAssets),
		)
	}
	var provider clob.AssetIDProvider
	if len(opts.AssetIDs) == 0 {
		provider = func(ctx context.Context) ([]string, error) {
			ids, err := s.fetchStreamAssetIDs(ctx, opts.MaxAssets)
			if err != nil && s.Logger != nil {
				s.Logger.Warn("fetch stream asset ids failed", zap.Error(err))
			}
			return ids, err
		}
	}
	stream := clob.NewStream(clob.StreamOptions{
		URL:             opts.URL,
		AssetIDs:        opts.AssetIDs,
		AssetIDProvider: provider,
		RefreshInterval: opts.RefreshInterval,
		Logger:          s.Logger,
	})
	return stream.Run(ctx, func(env clob.Envelope, raw []byte) {
		s.handleMessage(ctx, env, raw)
	})
}

func (s *TradeStreamService) handleMessage(ctx context.Context, env clob.Envelope, raw []byte) {
	if s == nil || s.Repo == nil {
		return
	}
	if !strings.EqualFold(env.EventType, clob.EventTypeTrade) {
		return
	}
	msg, err := clob.ParseTrade(raw)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("trade parse failed", zap.Error(err))
		}
		return
	}
	tradeTS, ok := msg.Time()
	if !ok {
		tradeTS = time.Now().UTC()
	}
	tokenID := strings.TrimSpace(msg.AssetID)
	if tokenID == "" {
		tokenID = strings.TrimSpace(env.AssetID)
	}
	item := models.Trade{
		ID:                msg.ID,
		TokenID:           tokenID,
		Maker:             strings.ToLower(strings.TrimSpace(msg.Maker)),
		Taker:             strings.ToLower(strings.TrimSpace(msg.Taker)),
		MakerAssetID:      msg.MakerAssetID,
		TakerAssetID:      msg.TakerAssetID,
		MakerAmountFilled: msg.MakerAmountFilled,
		TakerAmountFilled: msg.TakerAmountFilled,
		TradeTS:           tradeTS,
		Source:            strPtr("clob_ws"),
		RawJSON:           datatypes.JSON(raw),
	}
	if err := s.Repo.UpsertTrades(ctx, []models.Trade{item}); err != nil && s.Logger != nil {
		s.Logger.Warn("trade upsert failed", zap.Error(err), zap.String("trade_id", msg.ID))
	}
}

func (s *TradeStreamService) fetchStreamAssetIDs(ctx context.Context, maxAssets int) ([]string, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if maxAssets <= 0 {
		maxAssets = 200
	}
	return s.Repo.ListActiveTokenIDs(ctx, maxAssets)
}
