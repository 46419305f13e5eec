package scoring

import "github.com/shopspring/decimal"

// MarketMetrics are the per-market-token aggregates a reference scan feeds
// into the discovery score.
type MarketMetrics struct {
	TradeCount     int
	TotalVolume    decimal.Decimal
	UniqueWallets  int
	WhaleCount     int
	PreEventVolume decimal.Decimal
}

// DiscoveryScore ranks how likely a market group was the venue of the
// reference event's insider activity. Each term is clamped before weighting
// so the composite stays in [0,1].
func DiscoveryScore(m MarketMetrics, w DiscoveryWeights) float64 {
	whale := CountRatio(float64(m.WhaleCount), w.WhaleDenom, 1.0) * w.Whale
	timing := SafeRatio(m.PreEventVolume.InexactFloat64(), m.TotalVolume.InexactFloat64()) * w.Timing
	volume := LogScaled(m.TotalVolume.InexactFloat64(), w.VolumeDivisor, 1.0) * w.Volume
	wallets := CountRatio(float64(m.UniqueWallets), w.WalletDenom, 1.0) * w.Wallets
	return Clamp01(whale + timing + volume + wallets)
}

// WalletMetrics are the per-wallet aggregates within one market group,
// computed over the 7-day pre-event window.
type WalletMetrics struct {
	TotalVolume      decimal.Decimal
	WhaleTradeCount  int
	PreEventVolume   decimal.Decimal
	HoursBeforeEvent *float64
}

// SuspicionScore rates a single wallet's behavior inside a market group.
// The timing-precision ladder rewards wallets whose last pre-event trade
// landed close to the event.
func SuspicionScore(m WalletMetrics, w SuspicionWeights) float64 {
	volume := LogScaled(m.TotalVolume.InexactFloat64(), w.VolumeDivisor, 1.0) * w.Volume
	whale := CountRatio(float64(m.WhaleTradeCount), w.WhaleDenom, 1.0) * w.Whale
	timing := SafeRatio(m.PreEventVolume.InexactFloat64(), m.TotalVolume.InexactFloat64()) * w.TimingConcentration
	precision := PrecisionScore(m.HoursBeforeEvent)
	return Clamp01(volume + whale + timing + precision)
}
