package indicators

import (
	"math"

	"RLTradeBot/internal/models"
)

type PatternService struct{}

const (
	PatternNone             = "none"
	PatternBullishEngulfing = "bullish_engulfing"
	PatternBearishEngulfing = "bearish_engulfing"
	PatternDoji             = "doji"
)

func NewPatternService() *PatternService {
	return &PatternService{}
}

// Detect classifies the latest two bars. A doji is a body within 10% of
// the bar's full range; engulfing requires the current body to wrap the
// previous one in the opposite direction.
func (s *PatternService) Detect(candles []models.Candle) string {
	if len(candles) < 2 {
		return PatternNone
	}

	current := candles[len(candles)-1]
	previous := candles[len(candles)-2]

	if current.Close > current.Open &&
		previous.Close < previous.Open &&
		current.Open < previous.Close &&
		current.Close > previous.Open {
		return PatternBullishEngulfing
	}

	if current.Close < current.Open &&
		previous.Close > previous.Open &&
		current.Open > previous.Close &&
		current.Close < previous.Open {
		return PatternBearishEngulfing
	}

	if math.Abs(current.Close-current.Open) <= (current.High-current.Low)*0.1 {
		return PatternDoji
	}

	return PatternNone
}
