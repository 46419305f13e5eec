package models

import (
	"time"

	"gorm.io/datatypes"
)

// Trade is one CLOB fill as delivered by the ingestion side. Amounts are
// stored verbatim as minor-unit strings; the scoring core owns the policy
// for malformed values, so nothing is normalized on write.
type Trade struct {
	ID                string         `gorm:"primaryKey;type:text"`
	TokenID           string         `gorm:"type:text;index;not null"`
	Maker             string         `gorm:"type:text;index;not null"`
	Taker             string         `gorm:"type:text;index;not null"`
	MakerAssetID      string         `gorm:"type:text;not null"`
	TakerAssetID      string         `gorm:"type:text;not null"`
	MakerAmountFilled string         `gorm:"type:text;not null"`
	TakerAmountFilled string         `gorm:"type:text;not null"`
	TradeTS           time.Time      `gorm:"type:timestamptz;index;not null"`
	Source            *string        `gorm:"type:text"`
	RawJSON           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (Trade) TableName() string {
	return "trades"
}
