package scoring

import (
	"math"
	"testing"
)

func TestVolumeSignalCurve(t *testing.T) {
	cases := []struct {
		usd  float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{500, 0.2},
		{1_000, 0.3},
		{10_000, 0.5},
		{50_000, 0.5 + 0.2*math.Log10(5)},
		{100_000, 0.7},
		{1_000_000, 0.95},
		{25_000_000, 0.95},
	}
	for _, tc := range cases {
		got := VolumeSignal(tc.usd)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("VolumeSignal(%v)=%v want %v", tc.usd, got, tc.want)
		}
	}
}

func TestVolumeSignalMonotone(t *testing.T) {
	prev := -1.0
	for usd := -100.0; usd <= 2_000_000; usd += 777.7 {
		got := VolumeSignal(usd)
		if got < prev {
			t.Fatalf("VolumeSignal not monotone at usd=%v: %v < %v", usd, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("VolumeSignal(%v)=%v out of [0,1]", usd, got)
		}
		prev = got
	}
}

func TestUrgencySignal(t *testing.T) {
	if got := UrgencySignal(nil); got != 0.3 {
		t.Fatalf("nil days => %v want 0.3", got)
	}
	cases := []struct {
		days float64
		want float64
	}{
		{-3, 1.0}, {0, 1.0}, {0.5, 0.95}, {1, 0.95}, {2, 0.85},
		{3, 0.85}, {5, 0.7}, {10, 0.5}, {20, 0.3}, {30, 0.3}, {90, 0.1},
	}
	prev := 2.0
	for _, tc := range cases {
		d := tc.days
		got := UrgencySignal(&d)
		if got != tc.want {
			t.Fatalf("UrgencySignal(%v)=%v want %v", tc.days, got, tc.want)
		}
		if got > prev {
			t.Fatalf("UrgencySignal not non-increasing at days=%v", tc.days)
		}
		prev = got
	}
}

func TestLogScaledAndCountRatio(t *testing.T) {
	if got := LogScaled(0, 5, 1.0); got != 0 {
		t.Fatalf("LogScaled(0)=%v want 0", got)
	}
	if got := LogScaled(100_000, 5, 1.0); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("LogScaled(1e5,5)=%v want 1.0", got)
	}
	if got := LogScaled(1e12, 5, 1.0); got != 1.0 {
		t.Fatalf("LogScaled cap broken: %v", got)
	}
	if got := CountRatio(5, 10, 1.0); got != 0.5 {
		t.Fatalf("CountRatio(5,10)=%v want 0.5", got)
	}
	if got := CountRatio(100, 10, 1.0); got != 1.0 {
		t.Fatalf("CountRatio cap broken: %v", got)
	}
	if got := CountRatio(5, 0, 1.0); got != 0 {
		t.Fatalf("CountRatio zero denom => %v want 0", got)
	}
}

func TestTierCutoffs(t *testing.T) {
	cases := []struct {
		score float64
		want  Tier
	}{
		{0.95, TierCritical}, {0.8, TierCritical},
		{0.79, TierHigh}, {0.6, TierHigh},
		{0.59, TierMedium}, {0.4, TierMedium},
		{0.39, TierLow}, {0, TierLow},
	}
	for _, tc := range cases {
		if got := TierFor(tc.score); got != tc.want {
			t.Fatalf("TierFor(%v)=%s want %s", tc.score, got, tc.want)
		}
	}
}

func TestPrecisionScoreLadder(t *testing.T) {
	if got := PrecisionScore(nil); got != 0 {
		t.Fatalf("nil hours => %v want 0", got)
	}
	cases := []struct {
		hours float64
		want  float64
	}{
		{1, 0.20}, {24, 0.20}, {36, 0.15}, {48, 0.15}, {60, 0.10}, {72, 0.10}, {100, 0.05},
	}
	for _, tc := range cases {
		h := tc.hours
		if got := PrecisionScore(&h); got != tc.want {
			t.Fatalf("PrecisionScore(%v)=%v want %v", tc.hours, got, tc.want)
		}
	}
}
