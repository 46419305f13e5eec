package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	polymarketgamma "polywatch/internal/client/polymarket/gamma"
	"polywatch/internal/config"
	"polywatch/internal/repository"
)

// ResolutionSyncService backfills winning outcomes onto closed markets so
// that win rates can be computed for wallet network analysis.
//
// Public Gamma responses do not guarantee a resolution field, so this is
// best-effort: markets whose raw JSON yields no usable outcome are skipped
// and retried on the next pass.
type ResolutionSyncService struct {
	Repo   repository.Repository
	Gamma  *polymarketgamma.Client
	Config config.ResolutionSyncConfig
	Logger *zap.Logger
}

type ResolutionSyncResult struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
}

func (s *ResolutionSyncService) RunOnce(ctx context.Context) (ResolutionSyncResult, error) {
	result := ResolutionSyncResult{}
	if s == nil || s.Repo == nil || s.Gamma == nil {
		return result, nil
	}
	batch := s.Config.BatchSize
	if batch <= 0 || batch > 1000 {
		batch = 200
	}
	now := time.Now().UTC()

	markets, err := s.Repo.ListClosedMarketsPendingResolution(ctx, batch)
	if err != nil {
		return result, err
	}
	for _, mkt := range markets {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		marketID := strings.TrimSpace(mkt.ID)
		if marketID == "" {
			continue
		}
		result.Checked++
		raw, err := s.Gamma.GetMarketRawByID(ctx, marketID, nil)
		if err != nil {
			s.logWarn("gamma market fetch failed", err, zap.String("market_id", marketID))
			result.Skipped++
			continue
		}
		outcome, resolvedAt, err := extractResolution(raw)
		if err != nil {
			result.Skipped++
			continue
		}
		if resolvedAt.IsZero() {
			resolvedAt = now
		}
		if err := s.Repo.UpdateMarketResolution(ctx, marketID, outcome, resolvedAt); err != nil {
			s.logWarn("update market resolution failed", err, zap.String("market_id", marketID))
			continue
		}
		result.Resolved++
	}
	if s.Logger != nil {
		s.Logger.Info("resolution sync done",
			zap.Int("checked", result.Checked),
			zap.Int("resolved", result.Resolved),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}

// extractResolution decodes the winning outcome index from raw Gamma market
// JSON. The reliable signal is outcomePrices settling to a unit vector; a
// few explicit resolution keys are probed as fallback.
func extractResolution(raw []byte) (int, time.Time, error) {
	var obj map[string]any
	if len(raw) == 0 {
		return 0, time.Time{}, errors.New("empty")
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, time.Time{}, err
	}

	outcome := -1
	if prices := parseStringifiedArray(obj["outcomePrices"]); len(prices) > 0 {
		for i, p := range prices {
			val, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				continue
			}
			if val >= 0.99 {
				if outcome >= 0 {
					outcome = -1
					break
				}
				outcome = i
			}
		}
	}
	if outcome < 0 {
		outcomes := parseStringifiedArray(obj["outcomes"])
		for _, key := range []string{"resolvedOutcome", "resolved_outcome", "winningOutcome", "winning_outcome", "resolution"} {
			v, ok := obj[key]
			if !ok {
				continue
			}
			s, ok := v.(string)
			if !ok {
				continue
			}
			for i, name := range outcomes {
				if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(name)) {
					outcome = i
					break
				}
			}
			if outcome >= 0 {
				break
			}
		}
	}
	if outcome < 0 {
		return 0, time.Time{}, errors.New("no outcome")
	}

	var resolvedAt time.Time
	for _, key := range []string{"resolvedAt", "resolved_at", "closedTime", "closed_time", "endDate", "updatedAt", "updated_at"} {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
					resolvedAt = ts.UTC()
					break
				}
			}
		}
	}
	return outcome, resolvedAt, nil
}

// parseStringifiedArray handles both real JSON arrays and the stringified
// arrays Gamma uses for outcome fields.
func parseStringifiedArray(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		trimmed := strings.TrimSpace(x)
		if !strings.HasPrefix(trimmed, "[") {
			return nil
		}
		var out []string
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

func (s *ResolutionSyncService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
