package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReferenceCase is a documented real-world event used as ground truth for
// discovery scans: which markets and wallets were likely involved. The scan
// output is attached as JSON so the full ranked result survives re-runs.
type ReferenceCase struct {
	ID          string         `gorm:"primaryKey;type:text"`
	Title       string         `gorm:"type:text;not null"`
	Description *string        `gorm:"type:text"`
	EventAt     time.Time      `gorm:"type:timestamptz;not null;index"`
	WindowStart time.Time      `gorm:"type:timestamptz;not null"`
	WindowEnd   time.Time      `gorm:"type:timestamptz;not null"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending'"`
	ScanResult  datatypes.JSON `gorm:"type:jsonb"`
	ScannedAt   *time.Time     `gorm:"type:timestamptz"`
	CreatedAt   time.Time      `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ReferenceCase) TableName() string {
	return "reference_cases"
}

const (
	ReferenceCaseStatusPending = "pending"
	ReferenceCaseStatusScanned = "scanned"
)
