package repositories

import (
	"RLTradeBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create appends a closed trade record
func (r *TradeRepository) Create(trade *models.TradeRecord) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return r.db.Create(trade).Error
}

// FindBySymbol retrieves all trades for a symbol
func (r *TradeRepository) FindBySymbol(symbol string) ([]models.TradeRecord, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var trades []models.TradeRecord
	err := r.db.Where("symbol = ?", symbol).Order("exit_time ASC").Find(&trades).Error
	return trades, err
}

// GetTotalPnL sums realized pnl over a time range
func (r *TradeRepository) GetTotalPnL(start, end time.Time) (float64, error) {
	var totalPnL float64
	err := r.db.Model(&models.TradeRecord{}).
		Where("exit_time BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(pn_l), 0) as total_pnl").
		Scan(&totalPnL).Error
	return totalPnL, err
}
