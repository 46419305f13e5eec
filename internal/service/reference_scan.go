package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"polywatch/internal/config"
	"polywatch/internal/models"
	"polywatch/internal/repository"
	"polywatch/internal/scan"
)

// ReferenceScanService runs retrospective discovery scans over stored
// reference cases: known real-world events whose pre-event window is mined
// for suspicious markets and wallets.
type ReferenceScanService struct {
	Repo   repository.Repository
	Config config.ReferenceScanConfig
	Logger *zap.Logger
}

type CreateCaseInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventAt     time.Time  `json:"event_at"`
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
}

const defaultCaseWindow = 7 * 24 * time.Hour

func (s *ReferenceScanService) CreateCase(ctx context.Context, input CreateCaseInput) (*models.ReferenceCase, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.EventAt.IsZero() {
		return nil, fmt.Errorf("event_at is required")
	}
	eventAt := input.EventAt.UTC()
	windowStart := eventAt.Add(-defaultCaseWindow)
	windowEnd := eventAt
	if input.WindowStart != nil {
		windowStart = input.WindowStart.UTC()
	}
	if input.WindowEnd != nil {
		windowEnd = input.WindowEnd.UTC()
	}
	if !windowStart.Before(windowEnd) {
		return nil, fmt.Errorf("window start must be before window end")
	}
	item := &models.ReferenceCase{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: strPtr(input.Description),
		EventAt:     eventAt,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      models.ReferenceCaseStatusPending,
	}
	if err := s.Repo.InsertReferenceCase(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ReferenceScanService) ScanCase(ctx context.Context, id string) (scan.Result, error) {
	var result scan.Result
	if s == nil || s.Repo == nil {
		return result, fmt.Errorf("repository is nil")
	}
	item, err := s.Repo.GetReferenceCaseByID(ctx, id)
	if err != nil {
		return result, err
	}
	if item == nil {
		return result, fmt.Errorf("reference case not found: %s", id)
	}

	events, err := s.loadWindowTrades(ctx, item.WindowStart, item.WindowEnd)
	if err != nil {
		return result, err
	}
	tokens, err := s.loadTokenMap(ctx, events)
	if err != nil {
		return result, err
	}

	result, err = scan.Window(ctx, events, tokens, scan.Params{
		From:           item.WindowStart,
		To:             item.WindowEnd,
		EventTime:      item.EventAt,
		TopMarkets:     s.Config.TopMarkets,
		WalletLimit:    s.Config.WalletLimit,
		WalletMinScore: s.Config.WalletMinScore,
	})
	if err != nil {
		return result, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return result, err
	}
	now := time.Now().UTC()
	if err := s.Repo.UpdateReferenceCaseScan(ctx, item.ID, datatypes.JSON(payload), now); err != nil {
		return result, err
	}
	if s.Logger != nil {
		s.Logger.Info("reference case scanned",
			zap.String("case_id", item.ID),
			zap.Int("events", result.TotalEvents),
			zap.Int("markets", len(result.Markets)),
			zap.Int("wallets", len(result.Wallets)),
		)
	}
	return result, nil
}

func (s *ReferenceScanService) loadWindowTrades(ctx context.Context, from, to time.Time) ([]scan.TradeEvent, error) {
	pageSize := s.Config.TradePageSize
	if pageSize <= 0 {
		pageSize = 10000
	}
	events := make([]scan.TradeEvent, 0)
	offset := 0
	for {
		trades, err := s.Repo.ListTradesBetween(ctx, from, to, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(trades) == 0 {
			break
		}
		for _, t := range trades {
			events = append(events, scan.TradeEvent{
				ID:                t.ID,
				Maker:             t.Maker,
				Taker:             t.Taker,
				MakerAssetID:      t.MakerAssetID,
				TakerAssetID:      t.TakerAssetID,
				MakerAmountFilled: t.MakerAmountFilled,
				TakerAmountFilled: t.TakerAmountFilled,
				Timestamp:         t.TradeTS,
			})
		}
		if len(trades) < pageSize {
			break
		}
		offset += pageSize
	}
	return events, nil
}

func (s *ReferenceScanService) loadTokenMap(ctx context.Context, events []scan.TradeEvent) (scan.TokenMap, error) {
	tokenIDs := make([]string, 0)
	seen := map[string]struct{}{}
	for _, ev := range events {
		for _, id := range []string{ev.MakerAssetID, ev.TakerAssetID} {
			if id == "" || id == scan.CollateralAssetID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			tokenIDs = append(tokenIDs, id)
		}
	}
	tokens, err := s.Repo.ListTokensByIDs(ctx, tokenIDs)
	if err != nil {
		return nil, err
	}
	marketIDs := make([]string, 0, len(tokens))
	seenMarkets := map[string]struct{}{}
	for _, token := range tokens {
		if _, ok := seenMarkets[token.MarketID]; ok {
			continue
		}
		seenMarkets[token.MarketID] = struct{}{}
		marketIDs = append(marketIDs, token.MarketID)
	}
	markets, err := s.Repo.ListMarketsByIDs(ctx, marketIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}
	out := make(scan.TokenMap, len(tokens))
	for _, token := range tokens {
		market, ok := byID[token.MarketID]
		if !ok {
			continue
		}
		out[token.ID] = scan.MarketRef{
			MarketID:     market.ID,
			ConditionID:  market.ConditionID,
			Question:     market.Question,
			OutcomeIndex: token.OutcomeIndex,
		}
	}
	return out, nil
}
