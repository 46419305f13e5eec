package scoring

// The weight sets below are the tuned constants of each composite formula.
// Each formula's weights sum to 1.0 so the composite stays in [0,1] as long
// as every term is pre-clamped. They live in one place so the formulas stay
// auditable and testable in isolation.

// WatchWeights drive the active-market watchability composite.
type WatchWeights struct {
	Anomaly float64
	Volume  float64
	Urgency float64
}

func DefaultWatchWeights() WatchWeights {
	return WatchWeights{Anomaly: 0.5, Volume: 0.3, Urgency: 0.2}
}

// SimilarityWeights drive the wallet-to-wallet behavioral similarity score.
type SimilarityWeights struct {
	SharedRatio float64
	SameSide    float64
	WinRate     float64
	Anomaly     float64
}

func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{SharedRatio: 0.4, SameSide: 0.3, WinRate: 0.2, Anomaly: 0.1}
}

// DiscoveryWeights drive the reference-case market discovery score.
type DiscoveryWeights struct {
	Whale   float64
	Timing  float64
	Volume  float64
	Wallets float64

	// Denominators for the count-ratio terms and the log divisor for volume.
	WhaleDenom    float64
	WalletDenom   float64
	VolumeDivisor float64
}

func DefaultDiscoveryWeights() DiscoveryWeights {
	return DiscoveryWeights{
		Whale:         0.3,
		Timing:        0.3,
		Volume:        0.25,
		Wallets:       0.15,
		WhaleDenom:    10,
		WalletDenom:   50,
		VolumeDivisor: 5,
	}
}

// SuspicionWeights drive the per-wallet suspicion score inside a reference
// scan. TimingPrecision is a discrete ladder on hours-before-event rather
// than a weighted continuous term, see PrecisionScore.
type SuspicionWeights struct {
	Volume              float64
	Whale               float64
	TimingConcentration float64

	WhaleDenom    float64
	VolumeDivisor float64
}

func DefaultSuspicionWeights() SuspicionWeights {
	return SuspicionWeights{
		Volume:              0.25,
		Whale:               0.25,
		TimingConcentration: 0.30,
		WhaleDenom:          3,
		VolumeDivisor:       4,
	}
}

// PrecisionScore is the timing-precision ladder: the closer a wallet's last
// pre-event trade sits to the event, the higher the contribution. A nil
// value means the wallet never traded before the event and contributes 0.
func PrecisionScore(hoursBeforeEvent *float64) float64 {
	if hoursBeforeEvent == nil {
		return 0.0
	}
	h := *hoursBeforeEvent
	switch {
	case h <= 24:
		return 0.20
	case h <= 48:
		return 0.15
	case h <= 72:
		return 0.10
	default:
		return 0.05
	}
}

// Tier is the discrete classification derived from a composite score.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// TierFor maps a composite score onto its tier via fixed cutoffs.
func TierFor(score float64) Tier {
	switch {
	case score >= 0.8:
		return TierCritical
	case score >= 0.6:
		return TierHigh
	case score >= 0.4:
		return TierMedium
	default:
		return TierLow
	}
}
