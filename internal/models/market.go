package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Market struct {
	ID              string           `gorm:"primaryKey;type:text"`
	ConditionID     string           `gorm:"type:text;index;not null"`
	Slug            *string          `gorm:"type:text;uniqueIndex"`
	Question        string           `gorm:"type:text;not null"`
	Category        *string          `gorm:"type:text;index"`
	EndDate         *time.Time       `gorm:"type:timestamptz;index"`
	Volume          *decimal.Decimal `gorm:"type:numeric(30,10)"`
	Liquidity       *decimal.Decimal `gorm:"type:numeric(30,10)"`
	Active          bool             `gorm:"not null;default:true"`
	Closed          bool             `gorm:"not null;default:false"`
	ResolvedOutcome *int             `gorm:"type:int"`
	ResolvedAt      *time.Time       `gorm:"type:timestamptz"`
	LastSeenAt      time.Time        `gorm:"type:timestamptz;not null"`
	RawJSON         datatypes.JSON   `gorm:"type:jsonb;not null"`
}

func (Market) TableName() string {
	return "catalog_markets"
}
