package ring

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"polywatch/internal/scoring"
)

// Params configure ring assembly. Zero values take defaults; negative
// values are rejected before any scoring.
type Params struct {
	MinShared int     // minimum markets shared with the seed, default 2
	Threshold float64 // minimum similarity kept, default 0.3
	Limit     int     // maximum members, default 50
	Weights   scoring.SimilarityWeights
}

const (
	defaultMinShared = 2
	defaultThreshold = 0.3
	defaultLimit     = 50
)

func (p Params) validate() (Params, error) {
	if p.MinShared < 0 {
		return p, fmt.Errorf("ring params: min shared must be positive, got %d", p.MinShared)
	}
	if p.MinShared == 0 {
		p.MinShared = defaultMinShared
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return p, fmt.Errorf("ring params: threshold must be in [0,1], got %v", p.Threshold)
	}
	if p.Threshold == 0 {
		p.Threshold = defaultThreshold
	}
	if p.Limit < 0 {
		return p, fmt.Errorf("ring params: limit must be positive, got %d", p.Limit)
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if p.Weights == (scoring.SimilarityWeights{}) {
		p.Weights = DefaultSimilarityWeights()
	}
	return p, nil
}

func DefaultSimilarityWeights() scoring.SimilarityWeights {
	return scoring.DefaultSimilarityWeights()
}

// Assemble scores every candidate against the seed and keeps those sharing
// at least MinShared markets with similarity at or above Threshold, ranked
// descending and truncated to Limit. Ties preserve candidate input order.
// This is a one-hop expansion around the seed, not community detection.
func Assemble(seed []Position, candidates []Candidate, params Params) ([]Member, error) {
	params, err := params.validate()
	if err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("ring: seed wallet has no positions")
	}

	members := make([]Member, 0, len(candidates))
	for _, cand := range candidates {
		member := Similarity(seed, cand, params.Weights)
		if member.SharedMarkets < params.MinShared {
			continue
		}
		if member.Similarity < params.Threshold {
			continue
		}
		members = append(members, member)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Similarity > members[j].Similarity
	})
	if len(members) > params.Limit {
		members = members[:params.Limit]
	}
	return members, nil
}

// Stats aggregate the seed plus its retained members.
type Stats struct {
	Members          int             `json:"members"`
	AggregateWinRate float64         `json:"aggregate_win_rate"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
	DominantMarkets  []string        `json:"dominant_markets"`
}

// SeedSummary carries the seed-side inputs for ring statistics.
type SeedSummary struct {
	Positions   []Position
	TotalVolume decimal.Decimal
}

const dominantMarketLimit = 5

// ComputeStats sums and averages across the seed and retained members. The
// dominant markets are those shared by the most members, ranked by share
// count with ties in seed market order.
func ComputeStats(seed SeedSummary, members []Member) Stats {
	stats := Stats{
		Members:     len(members),
		TotalVolume: seed.TotalVolume,
	}

	winSum := seedWinRate(seed.Positions)
	winN := 1
	for _, m := range members {
		wr := neutralWinRate
		if m.WinRate != nil {
			wr = *m.WinRate
		}
		winSum += wr
		winN++
		stats.TotalVolume = stats.TotalVolume.Add(m.TotalVolume)
	}
	stats.AggregateWinRate = winSum / float64(winN)

	shareCounts := map[string]int{}
	for _, m := range members {
		for _, marketID := range m.SharedMarketIDs {
			shareCounts[marketID]++
		}
	}
	ranked := make([]string, 0, len(shareCounts))
	for _, pos := range seed.Positions {
		if shareCounts[pos.MarketID] > 0 {
			ranked = append(ranked, pos.MarketID)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return shareCounts[ranked[i]] > shareCounts[ranked[j]]
	})
	if len(ranked) > dominantMarketLimit {
		ranked = ranked[:dominantMarketLimit]
	}
	stats.DominantMarkets = ranked
	return stats
}
