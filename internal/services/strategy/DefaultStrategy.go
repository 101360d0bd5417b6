package strategy

import (
	"math"
	"strings"

	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
)

// DefaultStrategy is the plain EMA/MACD/RSI variant: a signed score
// where positive evidence is bullish and negative bearish.
type DefaultStrategy struct {
	baseSize float64
}

func NewDefaultStrategy(baseSize float64) *DefaultStrategy {
	if baseSize <= 0 {
		baseSize = 0.1
	}
	return &DefaultStrategy{baseSize: baseSize}
}

func (s *DefaultStrategy) GenerateSignal(candle models.Candle, state market.State, set indicators.IndicatorSet) Signal {
	score := 0.0
	var reasons []string

	if candle.Close > set.EMAShort {
		score += 0.2
		reasons = append(reasons, "price above EMA")
	} else {
		score -= 0.2
		reasons = append(reasons, "price below EMA")
	}

	if set.MACD.Histogram > 0 && set.MACD.MACD > set.MACD.Signal {
		score += 0.3
		reasons = append(reasons, "MACD bullish crossover")
	} else if set.MACD.Histogram < 0 && set.MACD.MACD < set.MACD.Signal {
		score -= 0.3
		reasons = append(reasons, "MACD bearish crossover")
	}

	if set.RSI < 30 {
		score += 0.5
		reasons = append(reasons, "RSI oversold")
	} else if set.RSI > 70 {
		score -= 0.5
		reasons = append(reasons, "RSI overbought")
	}

	action := ActionHold
	if score > 0.3 {
		action = ActionBuy
	} else if score < -0.3 {
		action = ActionSell
	}
	if action == ActionHold {
		return Hold("score inside neutral band")
	}

	return Signal{
		Action:     action,
		Confidence: math.Min(math.Abs(score), 1),
		Size:       s.baseSize,
		Reason:     strings.Join(reasons, ", "),
	}
}
