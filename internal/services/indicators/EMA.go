package indicators

// EMAService provides simple and exponential moving average calculations
type EMAService struct{}

// NewEMAService creates a new EMA service instance
func NewEMAService() *EMAService {
	return &EMAService{}
}

// SMA computes the simple average of the trailing period
func (s *EMAService) SMA(prices []float64, period int) float64 {
	if len(prices) == 0 || period <= 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	sum := 0.0
	for _, price := range prices[len(prices)-period:] {
		sum += price
	}
	return sum / float64(period)
}

// Series computes the full EMA series. The value at index period-1 is
// seeded with the SMA of the first period prices; earlier indexes stay 0.
func (s *EMAService) Series(prices []float64, period int) []float64 {
	if len(prices) < period || period <= 0 {
		return nil
	}

	ema := make([]float64, len(prices))
	multiplier := s.getMultiplier(period)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < len(prices); i++ {
		ema[i] = s.calculatePoint(prices[i], ema[i-1], multiplier)
	}

	return ema
}

// Calculate returns the latest EMA value. With fewer prices than the
// period it degrades to the last available price, or 0 when empty.
func (s *EMAService) Calculate(prices []float64, period int) float64 {
	if len(prices) == 0 || period <= 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	series := s.Series(prices, period)
	return series[len(series)-1]
}

// CalculatePoint advances a known EMA by one price
func (s *EMAService) CalculatePoint(price, prevEMA float64, period int) float64 {
	if period <= 0 {
		return prevEMA
	}
	return s.calculatePoint(price, prevEMA, s.getMultiplier(period))
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return (price-prevEMA)*multiplier + prevEMA
}
