package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketWatch is one persisted watchlist entry from a scoring run. Rows are
// keyed by market and overwritten per run; RunID groups the entries of one
// pass for audit.
type MarketWatch struct {
	MarketID             string          `gorm:"primaryKey;type:text"`
	RunID                string          `gorm:"type:text;index;not null"`
	ConditionID          string          `gorm:"type:text;not null"`
	Question             string          `gorm:"type:text;not null"`
	MaxEnsemble          float64         `gorm:"not null"`
	AvgEnsemble          float64         `gorm:"not null"`
	SuspiciousTradeCount int             `gorm:"not null"`
	SuspiciousVolume     decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	UniqueWallets        int             `gorm:"not null"`
	DaysUntilEnd         *float64
	Watchability         float64   `gorm:"not null;index"`
	Tier                 string    `gorm:"type:varchar(10);not null"`
	TopWallet            string    `gorm:"type:text;not null;default:''"`
	ScoredAt             time.Time `gorm:"type:timestamptz;not null"`
}

func (MarketWatch) TableName() string {
	return "market_watches"
}
