package scan

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var scanEvent = time.Date(2026, 2, 20, 18, 0, 0, 0, time.UTC)

func scanParams() Params {
	return Params{
		From:      scanEvent.Add(-10 * 24 * time.Hour),
		To:        scanEvent.Add(24 * time.Hour),
		EventTime: scanEvent,
	}
}

// mkFill builds a fill where the maker sells outcome tokens for usd collateral.
func mkFill(id, maker, taker, tokenID string, usd int64, ts time.Time) TradeEvent {
	collateral := decimal.NewFromInt(usd).Shift(6).String()
	outcome := decimal.NewFromInt(usd).Shift(6).Add(decimal.NewFromInt(1)).String()
	return TradeEvent{
		ID:                id,
		Maker:             maker,
		Taker:             taker,
		MakerAssetID:      tokenID,
		TakerAssetID:      CollateralAssetID,
		MakerAmountFilled: outcome,
		TakerAmountFilled: collateral,
		Timestamp:         ts,
	}
}

func singleTokenMap(tokenID, marketID string) TokenMap {
	return TokenMap{tokenID: {MarketID: marketID, ConditionID: "c-" + marketID, Question: "q", OutcomeIndex: 0}}
}

func TestWindowGroupMetrics(t *testing.T) {
	tokens := singleTokenMap("tok1", "m1")
	events := []TradeEvent{
		mkFill("t1", "alice", "bob", "tok1", 500, scanEvent.Add(-5*24*time.Hour)),
		mkFill("t2", "carol", "bob", "tok1", 2_000, scanEvent.Add(-12*time.Hour)),
		mkFill("t3", "alice", "dave", "tok1", 100, scanEvent.Add(-2*time.Hour)),
	}
	res, err := Window(context.Background(), events, tokens, scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Markets) != 1 {
		t.Fatalf("markets=%d want 1", len(res.Markets))
	}
	m := res.Markets[0]
	if m.TradeCount != 3 {
		t.Fatalf("trade_count=%d want 3", m.TradeCount)
	}
	if !m.TotalVolume.Equal(decimal.NewFromInt(2_600)) {
		t.Fatalf("total_volume=%s want 2600", m.TotalVolume)
	}
	if m.UniqueWallets != 4 {
		t.Fatalf("unique_wallets=%d want 4", m.UniqueWallets)
	}
	if m.WhaleCount != 1 || !m.WhaleVolume.Equal(decimal.NewFromInt(2_000)) {
		t.Fatalf("whale count=%d volume=%s want 1/2000", m.WhaleCount, m.WhaleVolume)
	}
	// 24h pre-event window catches t2 and t3 only.
	if !m.PreEventVolume.Equal(decimal.NewFromInt(2_100)) {
		t.Fatalf("pre_event_volume=%s want 2100", m.PreEventVolume)
	}
	if m.PeakDay != scanEvent.Add(-12*time.Hour).UTC().Format("2006-01-02") {
		t.Fatalf("peak_day=%s", m.PeakDay)
	}
	if m.Score <= 0 || m.Score > 1 {
		t.Fatalf("score %v out of (0,1]", m.Score)
	}
}

func TestWindowCollateralLegSelection(t *testing.T) {
	// Maker holds the collateral leg: market token is the taker asset.
	ev := TradeEvent{
		ID:                "t1",
		Maker:             "alice",
		Taker:             "bob",
		MakerAssetID:      CollateralAssetID,
		TakerAssetID:      "tok9",
		MakerAmountFilled: "1500000000", // $1500
		TakerAmountFilled: "2000000000",
		Timestamp:         scanEvent.Add(-time.Hour),
	}
	res, err := Window(context.Background(), []TradeEvent{ev}, singleTokenMap("tok9", "m9"), scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Markets) != 1 || res.Markets[0].TokenID != "tok9" {
		t.Fatalf("market token not taken from taker leg: %+v", res.Markets)
	}
	if !res.Markets[0].TotalVolume.Equal(decimal.NewFromInt(1_500)) {
		t.Fatalf("volume=%s want 1500 (smaller leg)", res.Markets[0].TotalVolume)
	}
	if res.Markets[0].WhaleCount != 1 {
		t.Fatalf("whale_count=%d want 1", res.Markets[0].WhaleCount)
	}
}

func TestWindowMalformedAmountDegrades(t *testing.T) {
	ev := mkFill("t1", "alice", "bob", "tok1", 5_000, scanEvent.Add(-time.Hour))
	ev.TakerAmountFilled = "not-a-number"
	res, err := Window(context.Background(), []TradeEvent{ev}, singleTokenMap("tok1", "m1"), scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.MalformedAmounts != 1 {
		t.Fatalf("malformed=%d want 1", res.MalformedAmounts)
	}
	m := res.Markets[0]
	if m.TradeCount != 1 {
		t.Fatalf("trade still counts: trade_count=%d want 1", m.TradeCount)
	}
	if !m.TotalVolume.IsZero() {
		t.Fatalf("volume=%s want 0", m.TotalVolume)
	}
}

func TestWindowUnmappedTokensExcludedButCounted(t *testing.T) {
	events := []TradeEvent{
		mkFill("t1", "alice", "bob", "tok1", 2_000, scanEvent.Add(-time.Hour)),
		mkFill("t2", "carol", "dave", "ghost", 9_000, scanEvent.Add(-time.Hour)),
	}
	res, err := Window(context.Background(), events, singleTokenMap("tok1", "m1"), scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Markets) != 1 {
		t.Fatalf("markets=%d want 1", len(res.Markets))
	}
	if res.UnmappedTokens != 1 {
		t.Fatalf("unmapped=%d want 1", res.UnmappedTokens)
	}
	if res.MappedGroups != 1 {
		t.Fatalf("mapped=%d want 1", res.MappedGroups)
	}
	if res.TotalEvents != 2 {
		t.Fatalf("total_events=%d want 2", res.TotalEvents)
	}
}

func TestWindowWalletSubScan(t *testing.T) {
	tokens := singleTokenMap("tok1", "m1")
	events := []TradeEvent{
		// insider: three whale buys within 24h of the event
		mkFill("t1", "mm", "insider", "tok1", 4_000, scanEvent.Add(-20*time.Hour)),
		mkFill("t2", "mm", "insider", "tok1", 6_000, scanEvent.Add(-10*time.Hour)),
		mkFill("t3", "mm", "insider", "tok1", 5_000, scanEvent.Add(-2*time.Hour)),
		// background noise, small and late
		mkFill("t4", "mm", "noise", "tok1", 50, scanEvent.Add(6*time.Hour)),
	}
	res, err := Window(context.Background(), events, tokens, scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	wallets := res.Markets[0].SuspiciousWallets
	if len(wallets) == 0 {
		t.Fatalf("no suspicious wallets retained")
	}
	top := wallets[0]
	if top.Address != "mm" && top.Address != "insider" {
		t.Fatalf("unexpected top wallet %s", top.Address)
	}
	var insider *WalletSuspicion
	for i := range wallets {
		if wallets[i].Address == "insider" {
			insider = &wallets[i]
		}
	}
	if insider == nil {
		t.Fatalf("insider wallet not retained: %+v", wallets)
	}
	if insider.TradeCount != 3 || insider.WhaleTradeCount != 3 {
		t.Fatalf("insider trades=%d whales=%d want 3/3", insider.TradeCount, insider.WhaleTradeCount)
	}
	if !insider.PreEventVolume.Equal(decimal.NewFromInt(15_000)) {
		t.Fatalf("pre_event_volume=%s want 15000", insider.PreEventVolume)
	}
	if insider.HoursBeforeEvent == nil || *insider.HoursBeforeEvent != 2 {
		t.Fatalf("hours_before_event=%v want 2", insider.HoursBeforeEvent)
	}
	if insider.SuspicionScore <= 0.3 {
		t.Fatalf("insider score %v should exceed retention threshold", insider.SuspicionScore)
	}
	// noise wallet only traded after the event: no pre-event trade.
	for _, w := range wallets {
		if w.Address == "noise" && w.HoursBeforeEvent != nil {
			t.Fatalf("noise wallet has hours_before_event=%v want nil", *w.HoursBeforeEvent)
		}
	}
}

func TestDedupWalletsKeepMax(t *testing.T) {
	markets := []MarketCandidate{
		{SuspiciousWallets: []WalletSuspicion{{Address: "w", SuspicionScore: 0.4}, {Address: "x", SuspicionScore: 0.5}}},
		{SuspiciousWallets: []WalletSuspicion{{Address: "w", SuspicionScore: 0.7}}},
	}
	out := dedupWallets(markets)
	if len(out) != 2 {
		t.Fatalf("wallets=%d want 2", len(out))
	}
	if out[0].Address != "w" || out[0].SuspicionScore != 0.7 {
		t.Fatalf("dedup kept %+v want w@0.7 first", out[0])
	}
}

func TestWindowRejectsBadParams(t *testing.T) {
	ctx := context.Background()
	base := scanParams()

	p := base
	p.From, p.To = p.To, p.From
	if _, err := Window(ctx, nil, TokenMap{}, p); err == nil {
		t.Fatalf("inverted window accepted")
	}

	p = base
	p.EventTime = time.Time{}
	if _, err := Window(ctx, nil, TokenMap{}, p); err == nil {
		t.Fatalf("missing event time accepted")
	}

	p = base
	p.TopMarkets = -1
	if _, err := Window(ctx, nil, TokenMap{}, p); err == nil {
		t.Fatalf("negative top markets accepted")
	}
}

func TestWindowCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Window(ctx, []TradeEvent{mkFill("t1", "a", "b", "tok1", 10, scanEvent)}, singleTokenMap("tok1", "m1"), scanParams())
	if err == nil {
		t.Fatalf("cancelled context accepted")
	}
}

func TestWindowDeterministic(t *testing.T) {
	tokens := TokenMap{}
	events := make([]TradeEvent, 0, 60)
	for i := 0; i < 20; i++ {
		tok := "tok" + string(rune('a'+i%5))
		tokens[tok] = MarketRef{MarketID: "m-" + tok, ConditionID: "c-" + tok, OutcomeIndex: i % 2}
		events = append(events,
			mkFill("t1-"+tok, "w1", "w2", tok, int64(100*(i+1)), scanEvent.Add(-time.Duration(i)*time.Hour)),
			mkFill("t2-"+tok, "w3", "w4", tok, int64(900*(i+1)), scanEvent.Add(-time.Duration(i*7)*time.Hour)),
		)
	}
	first, err := Window(context.Background(), events, tokens, scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, err := Window(context.Background(), events, tokens, scanParams())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(first.Markets) != len(second.Markets) {
		t.Fatalf("runs differ: %d vs %d markets", len(first.Markets), len(second.Markets))
	}
	for i := range first.Markets {
		a, b := first.Markets[i], second.Markets[i]
		if a.TokenID != b.TokenID || a.Score != b.Score || !a.TotalVolume.Equal(b.TotalVolume) {
			t.Fatalf("runs differ at market %d: %+v vs %+v", i, a, b)
		}
	}
	for i := range first.Wallets {
		if first.Wallets[i].Address != second.Wallets[i].Address {
			t.Fatalf("wallet order differs at %d", i)
		}
	}
}
