package indicators

import "math"

type RSIService struct{}

func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate computes RSI with Wilder smoothing: the first average
// gain/loss is a simple average over the first period deltas, every
// subsequent bar blends in at weight 1/period. Returns the neutral 50
// when the window is shorter than period+1, and saturates at 100 when
// the average loss is zero.
func (s *RSIService) Calculate(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += math.Abs(change)
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = math.Abs(change)
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	rsi := 100.0 - (100.0 / (1.0 + rs))

	// Safety bounds
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
