package backtest

import (
	"time"

	"RLTradeBot/internal/models"
)

// EquityPoint is one sample of the running balance curve
type EquityPoint struct {
	Timestamp time.Time
	Balance   float64
}

// BacktestResults aggregates a finished run. All derived fields are
// computed once at the end, never mutated independently.
type BacktestResults struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent, [0,100]
	TotalPnL      float64
	AveragePnL    float64

	MaxDrawdown  float64 // percent, [0,100]
	FinalBalance float64
	SharpeRatio  float64

	Trades      []models.TradeRecord
	EquityCurve []EquityPoint
}

const (
	WarmupBars          = 100
	BacktestLeverage    = 1.0
	ConfidenceThreshold = 0.7
)

// Config holds the simulation parameters
type Config struct {
	InitialBalance      float64
	Leverage            float64
	ConfidenceThreshold float64
	WarmupBars          int

	Symbols   []string
	TimeFrame string
	Limit     int
}

// NewConfig creates a config with the standard simulation defaults
func NewConfig() Config {
	return Config{
		InitialBalance:      10000,
		Leverage:            BacktestLeverage,
		ConfidenceThreshold: ConfidenceThreshold,
		WarmupBars:          WarmupBars,
		TimeFrame:           models.TimeFrame5m,
		Limit:               1000,
	}
}
