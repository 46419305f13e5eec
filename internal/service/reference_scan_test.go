package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"polywatch/internal/models"
	"polywatch/internal/scan"
)

func TestReferenceScanService_CreateAndScan(t *testing.T) {
	repo := newStubRepo()
	eventAt := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	repo.markets["m1"] = models.Market{ID: "m1", ConditionID: "0xc1", Question: "Will the merger close?"}
	repo.tokens["7001"] = models.Token{ID: "7001", MarketID: "m1", Outcome: "Yes", OutcomeIndex: 0}
	repo.trades = []models.Trade{
		{
			ID: "t1", TokenID: "7001",
			Maker: "0xmm", Taker: "0xinsider",
			MakerAssetID: "7001", TakerAssetID: "0",
			MakerAmountFilled: "8000000000", TakerAmountFilled: "5000000000",
			TradeTS: eventAt.Add(-2 * time.Hour),
		},
		{
			ID: "t2", TokenID: "7001",
			Maker: "0xmm", Taker: "0xinsider",
			MakerAssetID: "7001", TakerAssetID: "0",
			MakerAmountFilled: "3000000000", TakerAmountFilled: "2000000000",
			TradeTS: eventAt.Add(-20 * time.Hour),
		},
	}

	svc := &ReferenceScanService{Repo: repo}
	item, err := svc.CreateCase(context.Background(), CreateCaseInput{
		Title:   "Merger leak",
		EventAt: eventAt,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Status != models.ReferenceCaseStatusPending {
		t.Fatalf("status=%q", item.Status)
	}
	if !item.WindowEnd.Equal(eventAt) || !item.WindowStart.Equal(eventAt.Add(-defaultCaseWindow)) {
		t.Fatalf("window=[%v,%v)", item.WindowStart, item.WindowEnd)
	}

	result, err := svc.ScanCase(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.TotalEvents != 2 {
		t.Fatalf("events=%d want 2", result.TotalEvents)
	}
	if len(result.Markets) != 1 || result.Markets[0].MarketID != "m1" {
		t.Fatalf("markets=%+v", result.Markets)
	}
	// Both fills clear the whale threshold and land inside the 24h pre-event window.
	if result.Markets[0].WhaleCount != 2 || result.Markets[0].Score <= 0 {
		t.Fatalf("market=%+v", result.Markets[0])
	}

	payload, ok := repo.scanUpdated[item.ID]
	if !ok {
		t.Fatalf("scan result not persisted")
	}
	var stored scan.Result
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("stored payload: %v", err)
	}
	if stored.TotalEvents != 2 {
		t.Fatalf("stored=%+v", stored)
	}
}

func TestReferenceScanService_CaseNotFound(t *testing.T) {
	svc := &ReferenceScanService{Repo: newStubRepo()}
	if _, err := svc.ScanCase(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}
