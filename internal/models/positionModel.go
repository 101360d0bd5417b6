package models

import (
	"errors"
	"time"
)

// ErrPositionExists signals an attempt to open a second position for a
// symbol that already has one. This is an invariant violation, not an
// ordinary risk rejection.
var ErrPositionExists = errors.New("position already open for symbol")

type Position struct {
	ID         uint    `gorm:"primaryKey"`
	Symbol     string  `gorm:"index;not null"`
	Side       string  `gorm:"not null"`
	Size       float64 `gorm:"type:decimal(20,8);not null"`
	Leverage   float64 `gorm:"not null"`
	EntryPrice float64 `gorm:"type:decimal(20,8);not null"`

	StopLoss   float64 `gorm:"type:decimal(20,8);not null"`
	TakeProfit float64 `gorm:"type:decimal(20,8);not null"`

	PnL float64 `gorm:"type:decimal(20,8)"`

	EntryTime time.Time `gorm:"index;not null"`
	CloseTime time.Time `gorm:"index"`
	Status    string    `gorm:"not null"`

	Confidence float64 `gorm:"type:decimal(20,8)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"

	PositionSideLong  = "long"
	PositionSideShort = "short"
)
