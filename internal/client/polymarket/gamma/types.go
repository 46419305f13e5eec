package polymarketgamma

import (
	"encoding/json"
	"strings"
	"time"
)

// NormalizedTime tolerates the handful of timestamp formats Gamma emits.
// Unparseable or null values decode as the zero time.
type NormalizedTime struct {
	value time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (n *NormalizedTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		n.value = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			n.value = parsed.UTC()
			return nil
		}
	}
	n.value = time.Time{}
	return nil
}

func (n NormalizedTime) MarshalJSON() ([]byte, error) {
	if n.value.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(n.value.Format(time.RFC3339))
}

func (n NormalizedTime) IsZero() bool {
	return n.value.IsZero()
}

func (n NormalizedTime) Time() time.Time {
	return n.value
}

// StringSlice decodes either a real JSON array or the stringified array
// Gamma uses for fields like outcomes and clobTokenIds.
type StringSlice []string

func (s *StringSlice) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var out []string
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		*s = out
		return nil
	}
	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		*s = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(inner), &out); err != nil {
		return err
	}
	*s = out
	return nil
}

type Market struct {
	ID             string         `json:"id"`
	Slug           string         `json:"slug"`
	Question       string         `json:"question"`
	ConditionID    string         `json:"conditionId"`
	Category       string         `json:"category"`
	Active         bool           `json:"active"`
	Closed         bool           `json:"closed"`
	VolumeNum      float64        `json:"volumeNum"`
	LiquidityNum   float64        `json:"liquidityNum"`
	EndDate        NormalizedTime `json:"endDate"`
	CreatedAt      NormalizedTime `json:"createdAt"`
	UpdatedAt      NormalizedTime `json:"updatedAt"`
	ClobTokenIDs   StringSlice    `json:"clobTokenIds"`
	Outcomes       StringSlice    `json:"outcomes"`
	OutcomePrices  StringSlice    `json:"outcomePrices"`
	UMAResolutions StringSlice    `json:"umaResolutionStatuses"`
}
