package indicators

import (
	"math"

	"RLTradeBot/internal/models"
)

type ATRService struct{}

func NewATRService() *ATRService {
	return &ATRService{}
}

// Calculate computes the average true range: true ranges are seeded with
// a simple average over the first period bars and then Wilder-smoothed.
// Windows shorter than period+1 bars return 0.
func (s *ATRService) Calculate(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highClose, lowClose)))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return atr
}
