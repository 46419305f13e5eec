package service

import "testing"

func TestExtractResolution_OutcomePrices(t *testing.T) {
	raw := []byte(`{"outcomePrices":"[\"0\", \"1\"]","resolvedAt":"2026-02-14T00:00:00Z"}`)
	outcome, resolvedAt, err := extractResolution(raw)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if outcome != 1 {
		t.Fatalf("outcome=%d want 1", outcome)
	}
	if resolvedAt.IsZero() {
		t.Fatalf("resolvedAt is zero")
	}
}

func TestExtractResolution_AmbiguousPrices(t *testing.T) {
	raw := []byte(`{"outcomePrices":"[\"1\", \"1\"]"}`)
	_, _, err := extractResolution(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestExtractResolution_NamedOutcomeFallback(t *testing.T) {
	raw := []byte(`{"outcomes":"[\"Yes\",\"No\"]","resolvedOutcome":"No"}`)
	outcome, _, err := extractResolution(raw)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if outcome != 1 {
		t.Fatalf("outcome=%d want 1", outcome)
	}
}

func TestExtractResolution_Missing(t *testing.T) {
	raw := []byte(`{"foo":"bar"}`)
	_, _, err := extractResolution(raw)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseStringifiedArray(t *testing.T) {
	got := parseStringifiedArray(`["0.999", "0.001"]`)
	if len(got) != 2 || got[0] != "0.999" {
		t.Fatalf("got=%v", got)
	}
	if parseStringifiedArray("not an array") != nil {
		t.Fatalf("expected nil for plain string")
	}
	got = parseStringifiedArray([]any{"a", "b"})
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("got=%v", got)
	}
}
