package repositories

import (
	"RLTradeBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new instance of CandleRepository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Create adds a new Candle record to the database
func (r *CandleRepository) Create(candle *models.Candle) error {
	if candle == nil {
		return errors.New("candle cannot be nil")
	}
	return r.db.Create(candle).Error
}

// CreateBatch stores a fetched candle window in one insert
func (r *CandleRepository) CreateBatch(candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	return r.db.Create(&candles).Error
}

// GetCandles returns candles for a symbol/timeframe ordered chronologically
func (r *CandleRepository) GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var candles []models.Candle
	q := r.db.Where("symbol = ? AND time_frame = ?", symbol, timeframe).
		Order("open_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&candles).Error; err != nil {
		return nil, err
	}
	// Reverse into ascending order
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// GetCandlesByTimeRange returns candles within a time range, ascending
func (r *CandleRepository) GetCandlesByTimeRange(symbol, timeframe string, start, end time.Time) ([]models.Candle, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var candles []models.Candle
	err := r.db.Where("symbol = ? AND time_frame = ? AND open_time BETWEEN ? AND ?",
		symbol, timeframe, start, end).
		Order("open_time ASC").
		Find(&candles).Error
	return candles, err
}

// GetLatestCandle returns the most recent candle for a symbol/timeframe
func (r *CandleRepository) GetLatestCandle(symbol, timeframe string) (*models.Candle, error) {
	var candle models.Candle
	err := r.db.Where("symbol = ? AND time_frame = ?", symbol, timeframe).
		Order("open_time DESC").
		First(&candle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &candle, err
}
