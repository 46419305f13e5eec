package models

import (
	"time"

	"gorm.io/datatypes"
)

type Token struct {
	ID           string         `gorm:"primaryKey;type:text"`
	MarketID     string         `gorm:"type:text;index;not null"`
	Outcome      string         `gorm:"type:text;not null"`
	OutcomeIndex int            `gorm:"not null;default:0"`
	Side         *string        `gorm:"type:text"`
	LastSeenAt   time.Time      `gorm:"type:timestamptz;not null"`
	RawJSON      datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (Token) TableName() string {
	return "catalog_tokens"
}
