package indicators

// PPOService computes the percentage price oscillator: a MACD
// normalized by the slow EMA, in percent of price.
type PPOService struct {
	ema *EMAService
}

func NewPPOService() *PPOService {
	return &PPOService{
		ema: NewEMAService(),
	}
}

// Calculate compares EMA(period) against EMA(2*period). Windows shorter
// than the slow period return the neutral 0.
func (s *PPOService) Calculate(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period*2 {
		return 0
	}

	fastEMA := s.ema.Calculate(prices, period)
	slowEMA := s.ema.Calculate(prices, period*2)
	if slowEMA == 0 {
		return 0
	}

	return ((fastEMA - slowEMA) / slowEMA) * 100
}
