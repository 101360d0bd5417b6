package indicators

type MACDService struct {
	ema *EMAService
}

type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

func NewMACDService() *MACDService {
	return &MACDService{
		ema: NewEMAService(),
	}
}

// Calculate returns the latest MACD line, signal line, and histogram.
// Default periods: fast=12, slow=26, signal=9. Shorter windows than the
// slow period yield the neutral zero result.
func (s *MACDService) Calculate(prices []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	if len(prices) < slowPeriod || fastPeriod <= 0 || slowPeriod <= fastPeriod || signalPeriod <= 0 {
		return MACDResult{}
	}

	fastEMA := s.ema.Series(prices, fastPeriod)
	slowEMA := s.ema.Series(prices, slowPeriod)

	// MACD series exists from the slow seed onwards
	macdSeries := make([]float64, 0, len(prices)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(prices); i++ {
		macdSeries = append(macdSeries, fastEMA[i]-slowEMA[i])
	}

	macd := macdSeries[len(macdSeries)-1]
	signal := s.ema.Calculate(macdSeries, signalPeriod)

	return MACDResult{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}
