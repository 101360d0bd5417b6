package strategy

import (
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Signal is a stateless directional decision, consumed once.
type Signal struct {
	Action     string
	Confidence float64 // 0..1
	Size       float64 // raw size hint, scaled later by risk
	Reason     string
}

// Hold is the empty decision.
func Hold(reason string) Signal {
	return Signal{Action: ActionHold, Reason: reason}
}

// Strategy variants share one contract and are selected at construction.
type Strategy interface {
	GenerateSignal(candle models.Candle, state market.State, set indicators.IndicatorSet) Signal
}

// PerformanceMetrics summarizes one evaluation run for the slow
// parameter-tuning loop.
type PerformanceMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	MaxDrawdown   float64
	Days          float64 // length of the evaluated window
}

// New selects a strategy variant by configured name.
func New(name string, confidenceThreshold, baseSize float64) Strategy {
	switch name {
	case "default":
		return NewDefaultStrategy(baseSize)
	default:
		return NewPPOStrategy(confidenceThreshold, baseSize)
	}
}
