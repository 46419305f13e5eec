package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polywatch/internal/config"
	"polywatch/internal/models"
	"polywatch/internal/repository"
	"polywatch/internal/ring"
	"polywatch/internal/scan"
)

// RingService assembles coordinated-wallet networks around a seed wallet:
// wallets that traded the same markets on the same side with similar
// outcomes, scored by behavioral similarity.
type RingService struct {
	Repo   repository.Repository
	Config config.RingConfig
	Logger *zap.Logger
}

type RingResult struct {
	Seed          string          `json:"seed"`
	SeedPositions []ring.Position `json:"seed_positions"`
	Members       []ring.Member   `json:"members"`
	Stats         ring.Stats      `json:"stats"`
}

// maxRingCandidates bounds how many overlapping wallets are fully loaded
// and scored per request.
const maxRingCandidates = 200

func (s *RingService) BuildRing(ctx context.Context, seedWallet string) (RingResult, error) {
	var result RingResult
	if s == nil || s.Repo == nil {
		return result, fmt.Errorf("repository is nil")
	}
	seed := strings.ToLower(strings.TrimSpace(seedWallet))
	if seed == "" {
		return result, fmt.Errorf("seed wallet is required")
	}
	result.Seed = seed

	seedTrades, err := s.Repo.ListTradesByWallet(ctx, seed, 0)
	if err != nil {
		return result, err
	}
	if len(seedTrades) == 0 {
		return result, fmt.Errorf("seed wallet has no trades: %s", seed)
	}
	refs, err := s.loadTokenRefs(ctx, seedTrades)
	if err != nil {
		return result, err
	}
	seedView := reduceWalletTrades(seed, seedTrades, refs, nil)
	result.SeedPositions = ring.ExtractPositions(seedView.trades)
	if len(result.SeedPositions) == 0 {
		return result, fmt.Errorf("seed wallet has no mapped positions: %s", seed)
	}

	seedMarkets := make([]string, 0, len(result.SeedPositions))
	seedMarketSet := make(map[string]struct{}, len(result.SeedPositions))
	for _, pos := range result.SeedPositions {
		seedMarkets = append(seedMarkets, pos.MarketID)
		seedMarketSet[pos.MarketID] = struct{}{}
	}

	addresses, err := s.findOverlappingWallets(ctx, seedMarkets, seed)
	if err != nil {
		return result, err
	}
	if len(addresses) == 0 {
		result.Stats = ring.ComputeStats(ring.SeedSummary{
			Positions:   result.SeedPositions,
			TotalVolume: seedView.totalVolume,
		}, nil)
		return result, nil
	}

	candTrades, err := s.Repo.ListTradesByWallets(ctx, addresses, 0)
	if err != nil {
		return result, err
	}
	candRefs, err := s.loadTokenRefs(ctx, candTrades)
	if err != nil {
		return result, err
	}
	avgScores, err := s.Repo.WalletAnomalyAverages(ctx, addresses)
	if err != nil {
		return result, err
	}

	byWallet := make(map[string][]models.Trade, len(addresses))
	for _, t := range candTrades {
		for _, wallet := range []string{t.Maker, t.Taker} {
			if wallet == "" || wallet == seed {
				continue
			}
			byWallet[wallet] = append(byWallet[wallet], t)
		}
	}

	candidates := make([]ring.Candidate, 0, len(addresses))
	for _, address := range addresses {
		view := reduceWalletTrades(address, byWallet[address], candRefs, seedMarketSet)
		if len(view.trades) == 0 {
			continue
		}
		candidates = append(candidates, ring.Candidate{
			Address:         address,
			Positions:       ring.ExtractPositions(view.trades),
			TradeCount:      len(view.trades),
			TotalVolume:     view.totalVolume,
			Wins:            view.wins,
			ResolvedTrades:  view.resolved,
			AvgAnomalyScore: avgScores[address],
		})
	}

	members, err := ring.Assemble(result.SeedPositions, candidates, ring.Params{
		MinShared: s.Config.MinSharedMarkets,
		Threshold: s.Config.SimilarityThreshold,
		Limit:     s.Config.Limit,
	})
	if err != nil {
		return result, err
	}
	result.Members = members
	result.Stats = ring.ComputeStats(ring.SeedSummary{
		Positions:   result.SeedPositions,
		TotalVolume: seedView.totalVolume,
	}, members)
	if s.Logger != nil {
		s.Logger.Info("ring assembled",
			zap.String("seed", seed),
			zap.Int("candidates", len(candidates)),
			zap.Int("members", len(members)),
		)
	}
	return result, nil
}

// findOverlappingWallets returns wallets sharing at least the configured
// number of the seed's markets, most-overlapping first.
func (s *RingService) findOverlappingWallets(ctx context.Context, seedMarkets []string, seed string) ([]string, error) {
	pairs, err := s.Repo.ListWalletMarketPairs(ctx, seedMarkets, seed)
	if err != nil {
		return nil, err
	}
	minShared := s.Config.MinSharedMarkets
	if minShared <= 0 {
		minShared = 2
	}
	counts := map[string]int{}
	order := make([]string, 0)
	for _, pair := range pairs {
		if _, ok := counts[pair.Wallet]; !ok {
			order = append(order, pair.Wallet)
		}
		counts[pair.Wallet]++
	}
	out := make([]string, 0, len(order))
	for _, wallet := range order {
		if counts[wallet] >= minShared {
			out = append(out, wallet)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	if len(out) > maxRingCandidates {
		out = out[:maxRingCandidates]
	}
	return out, nil
}

// tokenRef resolves one outcome token to its market and settlement state.
type tokenRef struct {
	marketID        string
	outcomeIndex    int
	resolvedOutcome *int
}

func (s *RingService) loadTokenRefs(ctx context.Context, trades []models.Trade) (map[string]tokenRef, error) {
	tokenIDs := make([]string, 0, len(trades))
	seen := map[string]struct{}{}
	for _, t := range trades {
		if t.TokenID == "" {
			continue
		}
		if _, ok := seen[t.TokenID]; ok {
			continue
		}
		seen[t.TokenID] = struct{}{}
		tokenIDs = append(tokenIDs, t.TokenID)
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
	resolved := make(map[string]*int, len(markets))
	for _, m := range markets {
		resolved[m.ID] = m.ResolvedOutcome
	}
	out := make(map[string]tokenRef, len(tokens))
	for _, token := range tokens {
		out[token.ID] = tokenRef{
			marketID:        token.MarketID,
			outcomeIndex:    token.OutcomeIndex,
			resolvedOutcome: resolved[token.MarketID],
		}
	}
	return out, nil
}

type walletView struct {
	trades      []ring.Trade
	totalVolume decimal.Decimal
	wins        int
	resolved    int
}

// reduceWalletTrades converts raw fills into one wallet's perspective.
// A wallet buys the outcome token when the asset it gives up is collateral,
// and sells it otherwise. When restrict is non-nil, markets outside it are
// dropped.
func reduceWalletTrades(wallet string, trades []models.Trade, refs map[string]tokenRef, restrict map[string]struct{}) walletView {
	view := walletView{}
	for _, t := range trades {
		ref, ok := refs[t.TokenID]
		if !ok {
			continue
		}
		if restrict != nil {
			if _, ok := restrict[ref.marketID]; !ok {
				continue
			}
		}
		var givenAsset string
		switch wallet {
		case t.Maker:
			givenAsset = t.MakerAssetID
		case t.Taker:
			givenAsset = t.TakerAssetID
		default:
			continue
		}
		side := ring.SideSell
		if givenAsset == scan.CollateralAssetID {
			side = ring.SideBuy
		}
		resolved := ref.resolvedOutcome != nil
		won := false
		if resolved {
			if side == ring.SideBuy {
				won = *ref.resolvedOutcome == ref.outcomeIndex
			} else {
				won = *ref.resolvedOutcome != ref.outcomeIndex
			}
		}
		view.trades = append(view.trades, ring.Trade{
			MarketID:     ref.marketID,
			OutcomeIndex: ref.outcomeIndex,
			Side:         side,
			Resolved:     resolved,
			Won:          won,
		})
		if resolved {
			view.resolved++
			if won {
				view.wins++
			}
		}
		volume, _ := scan.VolumeUSD(scan.TradeEvent{
			MakerAssetID:      t.MakerAssetID,
			TakerAssetID:      t.TakerAssetID,
			MakerAmountFilled: t.MakerAmountFilled,
			TakerAmountFilled: t.TakerAmountFilled,
		})
		view.totalVolume = view.totalVolume.Add(volume)
	}
	return view
}
