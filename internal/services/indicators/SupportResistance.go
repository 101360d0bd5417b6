package indicators

import "RLTradeBot/internal/models"

type LevelService struct{}

type SupportResistanceResult struct {
	Support    []float64
	Resistance []float64
}

func NewLevelService() *LevelService {
	return &LevelService{}
}

// Levels collects local extrema over the trailing lookback window: a low
// below both neighbors is support, a high above both neighbors is
// resistance.
func (s *LevelService) Levels(candles []models.Candle, lookback int) SupportResistanceResult {
	if lookback <= 0 || len(candles) < lookback || lookback < 3 {
		return SupportResistanceResult{}
	}

	window := candles[len(candles)-lookback:]

	var result SupportResistanceResult
	for i := 1; i < len(window)-1; i++ {
		prev, curr, next := window[i-1], window[i], window[i+1]

		if curr.Low < prev.Low && curr.Low < next.Low {
			result.Support = append(result.Support, curr.Low)
		}
		if curr.High > prev.High && curr.High > next.High {
			result.Resistance = append(result.Resistance, curr.High)
		}
	}

	return result
}
