package repositories

import (
	"RLTradeBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new instance of PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create adds a new Position record. The one-position-per-symbol
// invariant is enforced here so every caller shares it.
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	open, err := r.FindOpenPositionBySymbol(position.Symbol)
	if err != nil {
		return err
	}
	if open != nil {
		return models.ErrPositionExists
	}
	return r.db.Create(position).Error
}

// Update modifies an existing Position record
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Save(position).Error
}

// FindOpenPositions retrieves all open Position records
func (r *PositionRepository) FindOpenPositions() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Where("status = ?", models.PositionStatusOpen).Find(&positions).Error
	return positions, err
}

// FindOpenPositionBySymbol retrieves the open Position for a symbol, if any
func (r *PositionRepository) FindOpenPositionBySymbol(symbol string) (*models.Position, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var position models.Position
	err := r.db.Where("symbol = ? AND status = ?", symbol, models.PositionStatusOpen).
		First(&position).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// CountOpen returns the number of currently open positions
func (r *PositionRepository) CountOpen() (int, error) {
	var count int64
	err := r.db.Model(&models.Position{}).
		Where("status = ?", models.PositionStatusOpen).
		Count(&count).Error
	return int(count), err
}

// GetPositionsByTimeRange retrieves positions opened within a time range
func (r *PositionRepository) GetPositionsByTimeRange(start, end time.Time) ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Where("entry_time BETWEEN ? AND ?", start, end).Find(&positions).Error
	return positions, err
}
