package polymarketgamma

import (
	"encoding/json"
	"testing"
)

func TestNormalizedTime_Formats(t *testing.T) {
	cases := []string{
		`"2026-02-14T12:00:00Z"`,
		`"2026-02-14T12:00:00.123Z"`,
		`"2026-02-14"`,
	}
	for _, raw := range cases {
		var nt NormalizedTime
		if err := json.Unmarshal([]byte(raw), &nt); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if nt.IsZero() {
			t.Fatalf("%s: zero time", raw)
		}
	}
}

func TestNormalizedTime_Garbage(t *testing.T) {
	var nt NormalizedTime
	if err := json.Unmarshal([]byte(`"soon"`), &nt); err != nil {
		t.Fatalf("err=%v", err)
	}
	if !nt.IsZero() {
		t.Fatalf("want zero time")
	}
}

func TestStringSlice_Stringified(t *testing.T) {
	var s StringSlice
	if err := json.Unmarshal([]byte(`"[\"Yes\",\"No\"]"`), &s); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(s) != 2 || s[0] != "Yes" || s[1] != "No" {
		t.Fatalf("got=%v", s)
	}
}

func TestStringSlice_RealArray(t *testing.T) {
	var s StringSlice
	if err := json.Unmarshal([]byte(`["a","b"]`), &s); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(s) != 2 {
		t.Fatalf("got=%v", s)
	}
}

func TestMarket_Decode(t *testing.T) {
	raw := []byte(`{
		"id": "500123",
		"slug": "will-x-happen",
		"question": "Will X happen?",
		"conditionId": "0xdeadbeef",
		"category": "Politics",
		"active": true,
		"closed": false,
		"volumeNum": 125000.5,
		"endDate": "2026-06-30T00:00:00Z",
		"clobTokenIds": "[\"7001\",\"7002\"]",
		"outcomes": "[\"Yes\",\"No\"]"
	}`)
	var m Market
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("err=%v", err)
	}
	if m.ID != "500123" || m.ConditionID != "0xdeadbeef" {
		t.Fatalf("m=%+v", m)
	}
	if len(m.ClobTokenIDs) != 2 || m.ClobTokenIDs[1] != "7002" {
		t.Fatalf("clobTokenIds=%v", m.ClobTokenIDs)
	}
	if m.EndDate.IsZero() {
		t.Fatalf("endDate is zero")
	}
}
