package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	polymarketgamma "polywatch/internal/client/polymarket/gamma"
	"polywatch/internal/models"
	"polywatch/internal/repository"
)

// CatalogSyncService pages the Gamma market catalog into local storage so
// that token ids seen on the trade feed can be resolved to markets.
type CatalogSyncService struct {
	Repo   repository.Repository
	Gamma  *polymarketgamma.Client
	Logger *zap.Logger
}

type SyncOptions struct {
	Scope    string
	Limit    int
	MaxPages int
	Resume   bool
	Closed   *bool
}

type SyncResult struct {
	Scope      string `json:"scope"`
	Pages      int    `json:"pages"`
	Markets    int    `json:"markets"`
	Tokens     int    `json:"tokens"`
	NextOffset int    `json:"next_offset"`
	Done       bool   `json:"done"`
}

func (s *CatalogSyncService) Sync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	scope := strings.ToLower(strings.TrimSpace(opts.Scope))
	if scope == "" {
		scope = "markets"
	}
	switch scope {
	case "markets":
		return s.syncMarkets(ctx, opts)
	default:
		return SyncResult{}, fmt.Errorf("unsupported scope: %s", scope)
	}
}

func (s *CatalogSyncService) syncMarkets(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if s.Gamma == nil {
		return SyncResult{}, fmt.Errorf("gamma client is nil")
	}
	limit := normalizeLimit(opts.Limit)
	maxPages := normalizeMaxPages(opts.MaxPages)
	offset := 0
	if opts.Resume {
		state, err := s.Repo.GetSyncState(ctx, "markets")
		if err != nil {
			return SyncResult{}, err
		}
		if state != nil && state.Cursor != nil {
			if parsed, err := strconv.Atoi(*state.Cursor); err == nil {
				offset = parsed
			}
		}
	}

	now := time.Now().UTC()
	result := SyncResult{Scope: "markets"}
	for page := 0; page < maxPages; page++ {
		params := &polymarketgamma.GetMarketsParams{
			Limit:  limit,
			Offset: offset,
			Closed: opts.Closed,
		}
		items, err := s.Gamma.GetMarkets(ctx, params)
		if err != nil {
			s.writeSyncError(ctx, "markets", err)
			return result, err
		}
		if len(items) == 0 {
			result.Done = true
			break
		}
		markets := make([]models.Market, 0, len(items))
		tokens := make([]models.Token, 0)
		for _, item := range items {
			if item == nil || item.ID == "" {
				continue
			}
			markets = append(markets, models.Market{
				ID:          item.ID,
				ConditionID: item.ConditionID,
				Slug:        strPtr(item.Slug),
				Question:    item.Question,
				Category:    strPtr(item.Category),
				EndDate:     normalizedTimePtr(item.EndDate),
				Volume:      decimalPtr(item.VolumeNum),
				Liquidity:   decimalPtr(item.LiquidityNum),
				Active:      item.Active,
				Closed:      item.Closed,
				LastSeenAt:  now,
				RawJSON:     mustJSON(item),
			})
			tokens = append(tokens, buildTokensFromMarket(item, now)...)
		}
		nextOffset := offset + len(items)

		err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			if err := s.Repo.UpsertMarketsTx(ctx, tx, markets); err != nil {
				return err
			}
			if err := s.Repo.UpsertTokensTx(ctx, tx, tokens); err != nil {
				return err
			}
			state := &models.SyncState{
				Scope:         "markets",
				Cursor:        strPtr(strconv.Itoa(nextOffset)),
				LastAttemptAt: &now,
				LastSuccessAt: &now,
				LastError:     nil,
				StatsJSON:     statsJSON(map[string]int{"markets": len(markets), "tokens": len(tokens)}),
			}
			return s.Repo.SaveSyncStateTx(ctx, tx, state)
		})
		if err != nil {
			s.writeSyncError(ctx, "markets", err)
			return result, err
		}

		result.Pages++
		result.Markets += len(markets)
		result.Tokens += len(tokens)
		result.NextOffset = nextOffset
		offset = nextOffset
		if len(items) < limit {
			result.Done = true
			break
		}
	}
	return result, nil
}

func (s *CatalogSyncService) writeSyncError(ctx context.Context, scope string, err error) {
	if s.Logger != nil {
		s.Logger.Warn("catalog sync failed", zap.String("scope", scope), zap.Error(err))
	}
	now := time.Now().UTC()
	_ = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		state := &models.SyncState{
			Scope:         scope,
			LastAttemptAt: &now,
			LastError:     strPtr(err.Error()),
		}
		return s.Repo.SaveSyncStateTx(ctx, tx, state)
	})
}

func buildTokensFromMarket(m *polymarketgamma.Market, now time.Time) []models.Token {
	if m == nil {
		return nil
	}
	tokenIDs := []string(m.ClobTokenIDs)
	outcomes := []string(m.Outcomes)
	if len(tokenIDs) == 0 || len(outcomes) == 0 {
		return nil
	}
	tokens := make([]models.Token, 0, len(outcomes))
	for i, outcome := range outcomes {
		if i >= len(tokenIDs) {
			break
		}
		raw := map[string]string{
			"token_id":  tokenIDs[i],
			"market_id": m.ID,
			"outcome":   outcome,
		}
		tokens = append(tokens, models.Token{
			ID:           tokenIDs[i],
			MarketID:     m.ID,
			Outcome:      outcome,
			OutcomeIndex: i,
			Side:         normalizeSide(outcome),
			LastSeenAt:   now,
			RawJSON:      mustJSON(raw),
		})
	}
	return tokens
}

func normalizeSide(outcome string) *string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "yes":
		return strPtr("yes")
	case "no":
		return strPtr("no")
	default:
		return nil
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	return limit
}

func normalizeMaxPages(maxPages int) int {
	if maxPages <= 0 {
		return 50
	}
	return maxPages
}

func normalizedTimePtr(val polymarketgamma.NormalizedTime) *time.Time {
	if val.IsZero() {
		return nil
	}
	t := val.Time()
	return &t
}

func decimalPtr(value float64) *decimal.Decimal {
	if value == 0 {
		return nil
	}
	val := decimal.NewFromFloat(value)
	return &val
}

func statsJSON(stats map[string]int) datatypes.JSON {
	if len(stats) == 0 {
		return datatypes.JSON([]byte("null"))
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(payload)
}

func mustJSON(v any) datatypes.JSON {
	payload, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(payload)
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
