package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"polywatch/internal/models"
)

// Repository is the persistence surface shared by the sync jobs, the scoring
// services and the HTTP handlers.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Catalog
	UpsertMarketsTx(ctx context.Context, tx *gorm.DB, items []models.Market) error
	UpsertTokensTx(ctx context.Context, tx *gorm.DB, items []models.Token) error
	ListMarketsByIDs(ctx context.Context, marketIDs []string) ([]models.Market, error)
	ListTokensByIDs(ctx context.Context, tokenIDs []string) ([]models.Token, error)
	ListTokensByMarketIDs(ctx context.Context, marketIDs []string) ([]models.Token, error)
	ListActiveTokenIDs(ctx context.Context, limit int) ([]string, error)
	ListClosedMarketsPendingResolution(ctx context.Context, limit int) ([]models.Market, error)
	UpdateMarketResolution(ctx context.Context, marketID string, outcome int, resolvedAt time.Time) error
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.SyncState) error

	// Trades
	UpsertTrades(ctx context.Context, items []models.Trade) error
	ListTradesBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]models.Trade, error)
	ListTradesByWallet(ctx context.Context, wallet string, limit int) ([]models.Trade, error)
	ListTradesByWallets(ctx context.Context, wallets []string, limit int) ([]models.Trade, error)
	ListWalletMarketPairs(ctx context.Context, marketIDs []string, excludeWallet string) ([]WalletMarket, error)

	// Anomaly scores
	UpsertTradeScores(ctx context.Context, items []models.TradeScore) error
	ListScoredTrades(ctx context.Context, params ScoredTradesParams) ([]ScoredTradeRow, error)
	WalletAnomalyAverages(ctx context.Context, wallets []string) (map[string]float64, error)

	// Watchlist snapshots
	ReplaceMarketWatches(ctx context.Context, runID string, items []models.MarketWatch) error
	ListMarketWatches(ctx context.Context, limit int) ([]models.MarketWatch, error)

	// Reference cases
	InsertReferenceCase(ctx context.Context, item *models.ReferenceCase) error
	GetReferenceCaseByID(ctx context.Context, id string) (*models.ReferenceCase, error)
	ListReferenceCases(ctx context.Context, limit, offset int) ([]models.ReferenceCase, error)
	UpdateReferenceCaseScan(ctx context.Context, id string, result datatypes.JSON, scannedAt time.Time) error
}

// WalletMarket is one distinct (wallet, market) pair from either side of a
// fill, used to find wallets whose footprint overlaps a seed wallet's.
type WalletMarket struct {
	Wallet   string
	MarketID string
}

type ScoredTradesParams struct {
	Since      time.Time
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ScoredTradeRow is a trade joined with its anomaly score and the market its
// token settles on.
type ScoredTradeRow struct {
	TradeID           string     `gorm:"column:trade_id"`
	TokenID           string     `gorm:"column:token_id"`
	Maker             string     `gorm:"column:maker"`
	Taker             string     `gorm:"column:taker"`
	MakerAssetID      string     `gorm:"column:maker_asset_id"`
	TakerAssetID      string     `gorm:"column:taker_asset_id"`
	MakerAmountFilled string     `gorm:"column:maker_amount_filled"`
	TakerAmountFilled string     `gorm:"column:taker_amount_filled"`
	TradeTS           time.Time  `gorm:"column:trade_ts"`
	Ensemble          float64    `gorm:"column:ensemble"`
	MarketID          string     `gorm:"column:market_id"`
	ConditionID       string     `gorm:"column:condition_id"`
	Question          string     `gorm:"column:question"`
	EndDate           *time.Time `gorm:"column:end_date"`
}
