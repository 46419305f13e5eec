package ring

// Side of a wallet's trade relative to the outcome token.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade is one of a wallet's trades reduced to the view the ring pipeline
// needs: which market, which outcome, which side, and settlement result
// when the market has resolved.
type Trade struct {
	MarketID     string
	OutcomeIndex int
	Side         string
	Resolved     bool
	Won          bool
}

// Position summarizes a wallet's behavior in one market: the outcome and
// side it traded most (majority vote, ties keep the first seen) and its
// resolved win rate. WinRate is nil when no trade in the market has
// resolved; consumers treat that as a neutral 0.5, never as 0.
type Position struct {
	MarketID        string   `json:"market_id"`
	DominantOutcome int      `json:"dominant_outcome"`
	DominantSide    string   `json:"dominant_side"`
	WinRate         *float64 `json:"win_rate"`
}

// ExtractPositions reduces a wallet's trades to one position per market.
// Market order follows first appearance in the input.
func ExtractPositions(trades []Trade) []Position {
	type acc struct {
		outcomeCounts map[int]int
		outcomeOrder  []int
		sideCounts    map[string]int
		sideOrder     []string
		wins          int
		resolved      int
	}
	accs := map[string]*acc{}
	order := make([]string, 0)

	for _, tr := range trades {
		if tr.MarketID == "" {
			continue
		}
		a, ok := accs[tr.MarketID]
		if !ok {
			a = &acc{outcomeCounts: map[int]int{}, sideCounts: map[string]int{}}
			accs[tr.MarketID] = a
			order = append(order, tr.MarketID)
		}
		if _, seen := a.outcomeCounts[tr.OutcomeIndex]; !seen {
			a.outcomeOrder = append(a.outcomeOrder, tr.OutcomeIndex)
		}
		a.outcomeCounts[tr.OutcomeIndex]++
		if _, seen := a.sideCounts[tr.Side]; !seen {
			a.sideOrder = append(a.sideOrder, tr.Side)
		}
		a.sideCounts[tr.Side]++
		if tr.Resolved {
			a.resolved++
			if tr.Won {
				a.wins++
			}
		}
	}

	out := make([]Position, 0, len(order))
	for _, marketID := range order {
		a := accs[marketID]
		pos := Position{
			MarketID:        marketID,
			DominantOutcome: dominantInt(a.outcomeOrder, a.outcomeCounts),
			DominantSide:    dominantString(a.sideOrder, a.sideCounts),
		}
		if a.resolved > 0 {
			wr := float64(a.wins) / float64(a.resolved)
			pos.WinRate = &wr
		}
		out = append(out, pos)
	}
	return out
}

func dominantInt(order []int, counts map[int]int) int {
	best, bestCount := 0, -1
	for _, k := range order {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func dominantString(order []string, counts map[string]int) string {
	best, bestCount := "", -1
	for _, k := range order {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
