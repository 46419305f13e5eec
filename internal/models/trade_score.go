package models

import "time"

// TradeScore is the per-trade output of the external statistical baseline
// model. Rows are written by that subsystem; this service only reads and
// aggregates them.
type TradeScore struct {
	TradeID            string    `gorm:"primaryKey;type:text"`
	Ensemble           float64   `gorm:"not null"`
	InsiderProbability float64   `gorm:"not null;default:0"`
	ModelVersion       string    `gorm:"type:varchar(50);not null;default:''"`
	ScoredAt           time.Time `gorm:"type:timestamptz;index;not null"`
}

func (TradeScore) TableName() string {
	return "trade_scores"
}
