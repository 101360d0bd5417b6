package indicators

import "math"

type BBandsService struct {
	ema *EMAService
}

type BBandsResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

func NewBBandsService() *BBandsService {
	return &BBandsService{
		ema: NewEMAService(),
	}
}

// Calculate computes the latest Bollinger Bands: middle = SMA(period),
// upper/lower = middle +/- deviations * stddev(period). Short windows
// collapse all three bands onto the last price.
func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) BBandsResult {
	if len(prices) == 0 || period <= 0 {
		return BBandsResult{}
	}
	if len(prices) < period {
		price := prices[len(prices)-1]
		return BBandsResult{Upper: price, Middle: price, Lower: price}
	}

	middle := s.ema.SMA(prices, period)

	squareSum := 0.0
	for _, price := range prices[len(prices)-period:] {
		diff := price - middle
		squareSum += diff * diff
	}
	stdDev := math.Sqrt(squareSum / float64(period))

	return BBandsResult{
		Upper:  middle + deviations*stdDev,
		Middle: middle,
		Lower:  middle - deviations*stdDev,
	}
}
