package models

import "time"

// TradeRecord is appended exactly once per closed position.
type TradeRecord struct {
	ID         uint      `gorm:"primaryKey"`
	Symbol     string    `gorm:"index;not null"`
	Side       string    `gorm:"not null"`
	EntryPrice float64   `gorm:"type:decimal(20,8);not null"`
	ExitPrice  float64   `gorm:"type:decimal(20,8);not null"`
	EntryTime  time.Time `gorm:"index;not null"`
	ExitTime   time.Time `gorm:"index;not null"`
	PnL        float64   `gorm:"type:decimal(20,8)"`
	PnLPercent float64   `gorm:"type:decimal(20,8)"`
	Reason     string
}

// TableName sets the table name for TradeRecord model
func (TradeRecord) TableName() string {
	return "trades"
}
