package models

import (
	"time"
)

// Candle is one OHLCV bar. Unique per (symbol, timeframe, open time),
// immutable once recorded.
type Candle struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"index;not null"`
	TimeFrame string    `gorm:"not null"`
	OpenTime  time.Time `gorm:"index;not null"`
	CloseTime time.Time `gorm:"index"`
	Open      float64   `gorm:"type:decimal(20,8)"`
	High      float64   `gorm:"type:decimal(20,8)"`
	Low       float64   `gorm:"type:decimal(20,8)"`
	Close     float64   `gorm:"type:decimal(20,8)"`
	Volume    float64   `gorm:"type:decimal(20,8)"`
}

const (
	TimeFrame1m  = "1m"
	TimeFrame5m  = "5m"
	TimeFrame15m = "15m"
	TimeFrame1h  = "1h"
	TimeFrame4h  = "4h"
)

// TableName sets the table name for Candle model
func (Candle) TableName() string {
	return "candles"
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// Volumes extracts the volume series from a candle window.
func Volumes(candles []Candle) []float64 {
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}
	return volumes
}
