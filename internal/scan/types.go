package scan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"polywatch/internal/scoring"
)

// CollateralAssetID is the asset id of the USD-stable collateral leg in a
// CLOB fill. The other leg identifies the market outcome token.
const CollateralAssetID = "0"

// minorUnitScale converts integer minor units to decimal USD (10^6).
const minorUnitScale = 6

// TradeEvent is one raw trade/fill as delivered by the ingestion
// collaborator. Amounts are integer minor units encoded as strings; a
// malformed amount degrades that trade's volume contribution to zero
// instead of failing the scan.
type TradeEvent struct {
	ID                string
	Maker             string
	Taker             string
	MakerAssetID      string
	TakerAssetID      string
	MakerAmountFilled string
	TakerAmountFilled string
	Timestamp         time.Time
}

// MarketRef is the resolved identity of a market outcome token.
type MarketRef struct {
	MarketID     string
	ConditionID  string
	Question     string
	OutcomeIndex int
}

// TokenResolver maps an outcome token id to its market. Unresolved tokens
// are treated as unmapped and excluded from ranked output.
type TokenResolver interface {
	Resolve(tokenID string) (MarketRef, bool)
}

// TokenMap is the plain map-backed TokenResolver.
type TokenMap map[string]MarketRef

func (m TokenMap) Resolve(tokenID string) (MarketRef, bool) {
	ref, ok := m[tokenID]
	return ref, ok
}

// WalletSuspicion is one wallet's aggregate within a market group, scored
// against the reference event.
type WalletSuspicion struct {
	Address            string          `json:"address"`
	TotalVolume        decimal.Decimal `json:"total_volume"`
	TradeCount         int             `json:"trade_count"`
	WhaleTradeCount    int             `json:"whale_trade_count"`
	PreEventVolume     decimal.Decimal `json:"pre_event_volume"`
	PreEventTradeCount int             `json:"pre_event_trade_count"`
	FirstTradeAt       time.Time       `json:"first_trade_at"`
	LastTradeAt        time.Time       `json:"last_trade_at"`
	HoursBeforeEvent   *float64        `json:"hours_before_event"`
	SuspicionScore     float64         `json:"suspicion_score"`
}

// MarketCandidate is one market-token group's aggregate plus its discovery
// score and retained suspicious wallets.
type MarketCandidate struct {
	TokenID        string          `json:"token_id"`
	MarketID       string          `json:"market_id"`
	ConditionID    string          `json:"condition_id"`
	Question       string          `json:"question"`
	OutcomeIndex   int             `json:"outcome_index"`
	TradeCount     int             `json:"trade_count"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	UniqueWallets  int             `json:"unique_wallets"`
	WhaleCount     int             `json:"whale_count"`
	WhaleVolume    decimal.Decimal `json:"whale_volume"`
	PreEventVolume decimal.Decimal `json:"pre_event_volume"`
	PeakDay        string          `json:"peak_day"`
	Score          float64         `json:"score"`

	SuspiciousWallets []WalletSuspicion `json:"suspicious_wallets"`
}

// Result is the outcome of one reference-case scan: ranked market
// candidates, the cross-market deduplicated wallet list, and scan-level
// accounting so operators can see data loss without the scan failing.
type Result struct {
	Markets []MarketCandidate `json:"markets"`
	Wallets []WalletSuspicion `json:"wallets"`

	TotalEvents      int `json:"total_events"`
	MappedGroups     int `json:"mapped_groups"`
	UnmappedTokens   int `json:"unmapped_tokens"`
	MalformedAmounts int `json:"malformed_amounts"`
}

// Params configure a reference-case window scan. Zero limits take defaults;
// negative values and inverted windows are rejected before any work starts.
type Params struct {
	From      time.Time
	To        time.Time
	EventTime time.Time

	TopMarkets     int     // ranked markets kept, default 10
	WalletLimit    int     // suspicious wallets kept per market, default 20
	WalletMinScore float64 // retention threshold on suspicion score, default 0.3

	Discovery scoring.DiscoveryWeights
	Suspicion scoring.SuspicionWeights
}

const (
	defaultTopMarkets     = 10
	defaultWalletLimit    = 20
	defaultWalletMinScore = 0.3

	preEventMetricWindow = 24 * time.Hour
	preEventScanWindow   = 7 * 24 * time.Hour
)

func (p Params) validate() (Params, error) {
	if p.From.IsZero() || p.To.IsZero() {
		return p, fmt.Errorf("scan params: window bounds are required")
	}
	if !p.From.Before(p.To) {
		return p, fmt.Errorf("scan params: window start %s is not before end %s", p.From, p.To)
	}
	if p.EventTime.IsZero() {
		return p, fmt.Errorf("scan params: event time is required")
	}
	if p.TopMarkets < 0 {
		return p, fmt.Errorf("scan params: top markets must be positive, got %d", p.TopMarkets)
	}
	if p.TopMarkets == 0 {
		p.TopMarkets = defaultTopMarkets
	}
	if p.WalletLimit < 0 {
		return p, fmt.Errorf("scan params: wallet limit must be positive, got %d", p.WalletLimit)
	}
	if p.WalletLimit == 0 {
		p.WalletLimit = defaultWalletLimit
	}
	if p.WalletMinScore < 0 || p.WalletMinScore > 1 {
		return p, fmt.Errorf("scan params: wallet min score must be in [0,1], got %v", p.WalletMinScore)
	}
	if p.WalletMinScore == 0 {
		p.WalletMinScore = defaultWalletMinScore
	}
	if p.Discovery == (scoring.DiscoveryWeights{}) {
		p.Discovery = scoring.DefaultDiscoveryWeights()
	}
	if p.Suspicion == (scoring.SuspicionWeights{}) {
		p.Suspicion = scoring.DefaultSuspicionWeights()
	}
	return p, nil
}
