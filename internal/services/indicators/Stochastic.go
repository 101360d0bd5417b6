package indicators

import "RLTradeBot/internal/models"

type StochasticService struct{}

type StochasticResult struct {
	K float64
	D float64
}

func NewStochasticService() *StochasticService {
	return &StochasticService{}
}

// Calculate computes %K over the trailing period and %D as the simple
// average of the last smooth %K values. Short windows and flat ranges
// return the neutral 50/50.
func (s *StochasticService) Calculate(candles []models.Candle, period, smooth int) StochasticResult {
	if period <= 0 || smooth <= 0 || len(candles) < period {
		return StochasticResult{K: 50, D: 50}
	}

	k := s.kAt(candles, len(candles)-1, period)

	// %D smooths the most recent %K values
	dSum := 0.0
	dCount := 0
	for i := 0; i < smooth; i++ {
		idx := len(candles) - 1 - i
		if idx < period-1 {
			break
		}
		dSum += s.kAt(candles, idx, period)
		dCount++
	}
	d := k
	if dCount > 0 {
		d = dSum / float64(dCount)
	}

	return StochasticResult{K: k, D: d}
}

func (s *StochasticService) kAt(candles []models.Candle, idx, period int) float64 {
	window := candles[idx-period+1 : idx+1]

	highest := window[0].High
	lowest := window[0].Low
	for _, c := range window {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	if highest == lowest {
		return 50
	}
	return (candles[idx].Close - lowest) / (highest - lowest) * 100
}
