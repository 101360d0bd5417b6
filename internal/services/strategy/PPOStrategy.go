package strategy

import (
	"math"
	"strings"

	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
)

// PPOStrategy scores a basket of indicator events additively and trades
// the direction the weight of evidence points to. The tunable thresholds
// are adjusted by the slow Optimize loop, not per bar.
type PPOStrategy struct {
	rsiOverbought       float64
	rsiOversold         float64
	ppoThreshold        float64
	confidenceThreshold float64
	baseSize            float64

	// previous bar's indicators per symbol, for crossing detection
	last map[string]indicators.IndicatorSet
}

func NewPPOStrategy(confidenceThreshold, baseSize float64) *PPOStrategy {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.2
	}
	if baseSize <= 0 {
		baseSize = 0.1
	}
	return &PPOStrategy{
		rsiOverbought:       70,
		rsiOversold:         30,
		ppoThreshold:        0.05,
		confidenceThreshold: confidenceThreshold,
		baseSize:            baseSize,
		last:                make(map[string]indicators.IndicatorSet),
	}
}

func (s *PPOStrategy) GenerateSignal(candle models.Candle, state market.State, set indicators.IndicatorSet) Signal {
	prev, hasPrev := s.last[candle.Symbol]
	s.last[candle.Symbol] = set

	strength := 0.0
	action := ActionHold
	var reasons []string

	// PPO zero crossing
	if hasPrev {
		if set.PPO > 0 && prev.PPO <= 0 {
			strength += 0.3
			action = ActionBuy
			reasons = append(reasons, "PPO crossed above zero")
		} else if set.PPO < 0 && prev.PPO >= 0 {
			strength += 0.3
			action = ActionSell
			reasons = append(reasons, "PPO crossed below zero")
		}
	}

	// RSI extremes
	if set.RSI < s.rsiOversold {
		strength += 0.2
		action = ActionBuy
		reasons = append(reasons, "RSI oversold")
	} else if set.RSI > s.rsiOverbought {
		strength += 0.2
		action = ActionSell
		reasons = append(reasons, "RSI overbought")
	}

	// MACD histogram sign flip
	if hasPrev {
		if set.MACD.Histogram > 0 && prev.MACD.Histogram <= 0 {
			strength += 0.2
			action = ActionBuy
			reasons = append(reasons, "MACD histogram turned positive")
		} else if set.MACD.Histogram < 0 && prev.MACD.Histogram >= 0 {
			strength += 0.2
			action = ActionSell
			reasons = append(reasons, "MACD histogram turned negative")
		}
	}

	// Bollinger band breach
	price := candle.Close
	if set.Bollinger.Lower > 0 && price < set.Bollinger.Lower {
		strength += 0.2
		action = ActionBuy
		reasons = append(reasons, "price below lower Bollinger band")
	} else if set.Bollinger.Upper > 0 && price > set.Bollinger.Upper {
		strength += 0.2
		action = ActionSell
		reasons = append(reasons, "price above upper Bollinger band")
	}

	// Stochastic extremes, both lines
	if set.Stochastic.K < 20 && set.Stochastic.D < 20 {
		strength += 0.15
		action = ActionBuy
		reasons = append(reasons, "stochastic oversold")
	} else if set.Stochastic.K > 80 && set.Stochastic.D > 80 {
		strength += 0.15
		action = ActionSell
		reasons = append(reasons, "stochastic overbought")
	}

	// Support/resistance proximity
	if nearLevel(price, set.SupportResistance.Support) {
		strength += 0.15
		action = ActionBuy
		reasons = append(reasons, "price near support")
	} else if nearLevel(price, set.SupportResistance.Resistance) {
		strength += 0.15
		action = ActionSell
		reasons = append(reasons, "price near resistance")
	}

	// High-volume zone proximity confirms either direction
	if nearLevel(price, set.VolumeProfile.HighVolumeZones) {
		strength += 0.1
		reasons = append(reasons, "price near high-volume zone")
	}

	// Trend/regime confirmation of the chosen direction
	if state.Trend == market.TrendUp && action == ActionBuy {
		strength += 0.2
		reasons = append(reasons, "uptrend confirmed")
	} else if state.Trend == market.TrendDown && action == ActionSell {
		strength += 0.2
		reasons = append(reasons, "downtrend confirmed")
	}

	// High volatility discounts everything
	if state.Volatility == market.LevelHigh {
		strength *= 0.8
		reasons = append(reasons, "high volatility adjustment")
	}

	if strength < s.confidenceThreshold || action == ActionHold {
		return Hold("signal strength too low")
	}

	size := s.baseSize
	if price > 0 {
		size = s.baseSize * (1 - set.ATR/price)
	}
	if size < 0 {
		size = 0
	}

	return Signal{
		Action:     action,
		Confidence: math.Min(strength, 1),
		Size:       size,
		Reason:     strings.Join(reasons, "; "),
	}
}

// Optimize compares a forward-test run against the backtest it was tuned
// on and nudges thresholds: conservative when forward results
// underperform, aggressive otherwise. Runs outside the per-bar hot path.
func (s *PPOStrategy) Optimize(backtest, forward PerformanceMetrics) {
	if forward.WinRate < backtest.WinRate {
		s.rsiOverbought = math.Min(75, s.rsiOverbought+2)
		s.rsiOversold = math.Max(25, s.rsiOversold-2)
	} else {
		s.rsiOverbought = math.Max(65, s.rsiOverbought-2)
		s.rsiOversold = math.Min(35, s.rsiOversold+2)
	}

	if forward.MaxDrawdown > backtest.MaxDrawdown {
		s.ppoThreshold = math.Min(0.1, s.ppoThreshold+0.01)
	} else {
		s.ppoThreshold = math.Max(0.02, s.ppoThreshold-0.01)
	}

	backtestFrequency := tradeFrequency(backtest)
	forwardFrequency := tradeFrequency(forward)
	if forwardFrequency > backtestFrequency*1.5 {
		s.confidenceThreshold = math.Min(0.5, s.confidenceThreshold+0.05)
	} else if forwardFrequency < backtestFrequency*0.5 {
		s.confidenceThreshold = math.Max(0.1, s.confidenceThreshold-0.05)
	}
}

// Thresholds reports the current tunable parameters.
func (s *PPOStrategy) Thresholds() (rsiOverbought, rsiOversold, ppoThreshold, confidenceThreshold float64) {
	return s.rsiOverbought, s.rsiOversold, s.ppoThreshold, s.confidenceThreshold
}

func tradeFrequency(m PerformanceMetrics) float64 {
	if m.Days <= 0 {
		return 0
	}
	return float64(m.TotalTrades) / m.Days
}

func nearLevel(price float64, levels []float64) bool {
	for _, level := range levels {
		if level == 0 {
			continue
		}
		if math.Abs(price-level)/level < 0.01 {
			return true
		}
	}
	return false
}
