package service

import (
	"encoding/json"
	"testing"
	"time"

	polymarketgamma "polywatch/internal/client/polymarket/gamma"
)

func TestBuildTokensFromMarket(t *testing.T) {
	var m polymarketgamma.Market
	raw := []byte(`{
		"id": "123",
		"question": "Will it happen?",
		"conditionId": "0xabc",
		"clobTokenIds": "[\"111\",\"222\"]",
		"outcomes": "[\"Yes\",\"No\"]"
	}`)
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	now := time.Now().UTC()
	tokens := buildTokensFromMarket(&m, now)
	if len(tokens) != 2 {
		t.Fatalf("tokens=%d want 2", len(tokens))
	}
	if tokens[0].ID != "111" || tokens[0].OutcomeIndex != 0 || tokens[0].Outcome != "Yes" {
		t.Fatalf("token[0]=%+v", tokens[0])
	}
	if tokens[1].ID != "222" || tokens[1].OutcomeIndex != 1 {
		t.Fatalf("token[1]=%+v", tokens[1])
	}
	if tokens[0].Side == nil || *tokens[0].Side != "yes" {
		t.Fatalf("side=%v want yes", tokens[0].Side)
	}
}

func TestBuildTokensFromMarket_MismatchedLengths(t *testing.T) {
	m := &polymarketgamma.Market{
		ID:           "1",
		ClobTokenIDs: polymarketgamma.StringSlice{"only-one"},
		Outcomes:     polymarketgamma.StringSlice{"Yes", "No"},
	}
	tokens := buildTokensFromMarket(m, time.Now().UTC())
	if len(tokens) != 1 {
		t.Fatalf("tokens=%d want 1", len(tokens))
	}
}

func TestNormalizeSide(t *testing.T) {
	if got := normalizeSide(" YES "); got == nil || *got != "yes" {
		t.Fatalf("got=%v", got)
	}
	if got := normalizeSide("Trump"); got != nil {
		t.Fatalf("got=%v want nil", got)
	}
}
