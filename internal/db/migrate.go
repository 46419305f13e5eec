package db

import (
	"polywatch/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Market{},
		&models.Token{},
		&models.SyncState{},
		&models.Trade{},
		&models.TradeScore{},
		&models.MarketWatch{},
		&models.ReferenceCase{},
	)
}
