package ring

import (
	"github.com/shopspring/decimal"

	"polywatch/internal/scoring"
)

// neutralWinRate stands in whenever a wallet has no resolved trades.
const neutralWinRate = 0.5

// Candidate is one wallet to compare against the seed. Positions must be
// restricted to the seed's market set by the caller's query.
type Candidate struct {
	Address         string
	Positions       []Position
	TradeCount      int
	TotalVolume     decimal.Decimal
	Wins            int
	ResolvedTrades  int
	AvgAnomalyScore float64
}

// Member is a scored candidate: similarity in [0,1] plus the stats carried
// into ring output.
type Member struct {
	Address         string          `json:"address"`
	Similarity      float64         `json:"similarity"`
	SharedMarkets   int             `json:"shared_markets"`
	SharedMarketIDs []string        `json:"shared_market_ids"`
	TradeCount      int             `json:"trade_count"`
	TotalVolume     decimal.Decimal `json:"total_volume"`
	WinRate         *float64        `json:"win_rate"`
	AvgAnomalyScore float64         `json:"avg_anomaly_score"`
}

// Similarity scores how closely a candidate's trading behavior tracks the
// seed's. The score is intentionally asymmetric: the shared ratio divides
// by the seed's market count, so swapping seed and candidate can change it.
func Similarity(seed []Position, cand Candidate, weights scoring.SimilarityWeights) Member {
	member := Member{
		Address:         cand.Address,
		TradeCount:      cand.TradeCount,
		TotalVolume:     cand.TotalVolume,
		AvgAnomalyScore: cand.AvgAnomalyScore,
	}
	if cand.ResolvedTrades > 0 {
		wr := float64(cand.Wins) / float64(cand.ResolvedTrades)
		member.WinRate = &wr
	}
	if len(seed) == 0 {
		return member
	}

	candByMarket := make(map[string]Position, len(cand.Positions))
	for _, pos := range cand.Positions {
		candByMarket[pos.MarketID] = pos
	}

	sameSide := 0
	for _, pos := range seed {
		other, ok := candByMarket[pos.MarketID]
		if !ok {
			continue
		}
		member.SharedMarkets++
		member.SharedMarketIDs = append(member.SharedMarketIDs, pos.MarketID)
		if pos.DominantOutcome == other.DominantOutcome && pos.DominantSide == other.DominantSide {
			sameSide++
		}
	}
	if member.SharedMarkets == 0 {
		return member
	}

	sharedRatio := float64(member.SharedMarkets) / float64(len(seed))
	sameSideRatio := float64(sameSide) / float64(member.SharedMarkets)

	candWinRate := neutralWinRate
	if member.WinRate != nil {
		candWinRate = *member.WinRate
	}
	winRateSimilarity := 1 - abs(seedWinRate(seed)-candWinRate)

	scoreFactor := scoring.Clamp01(cand.AvgAnomalyScore)

	member.Similarity = scoring.Clamp01(
		weights.SharedRatio*sharedRatio +
			weights.SameSide*sameSideRatio +
			weights.WinRate*winRateSimilarity +
			weights.Anomaly*scoreFactor)
	return member
}

// seedWinRate averages the seed's per-market win rates over markets that
// have one; neutral 0.5 when none have resolved.
func seedWinRate(seed []Position) float64 {
	sum := 0.0
	n := 0
	for _, pos := range seed {
		if pos.WinRate != nil {
			sum += *pos.WinRate
			n++
		}
	}
	if n == 0 {
		return neutralWinRate
	}
	return sum / float64(n)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
