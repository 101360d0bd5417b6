package indicators

import "RLTradeBot/internal/models"

// IndicatorSet is the full composite recomputed for every candle. Values
// degrade to neutral constants on short history, never NaN.
type IndicatorSet struct {
	RSI               float64
	MACD              MACDResult
	PPO               float64
	EMAShort          float64
	EMALong           float64
	Bollinger         BBandsResult
	Stochastic        StochasticResult
	ATR               float64
	VolumeProfile     VolumeProfileResult
	SupportResistance SupportResistanceResult
	Pattern           string
}

// Engine derives an IndicatorSet from a bounded trailing candle window.
// It is stateless per call; WindowSize bounds how much history callers
// need to feed it.
type Engine struct {
	rsi    *RSIService
	macd   *MACDService
	ppo    *PPOService
	ema    *EMAService
	bbands *BBandsService
	stoch  *StochasticService
	atr    *ATRService
	volume *VolumeService
	levels *LevelService
	points *PatternService
}

const (
	WindowSize = 200

	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	ppoPeriod      = 14
	emaShortPeriod = 12
	emaLongPeriod  = 26
	bbandsPeriod   = 20
	bbandsStdDev   = 2.0
	stochPeriod    = 14
	stochSmooth    = 3
	atrPeriod      = 14
	volumeLookback = 20
	levelLookback  = 20
)

func NewEngine() *Engine {
	return &Engine{
		rsi:    NewRSIService(),
		macd:   NewMACDService(),
		ppo:    NewPPOService(),
		ema:    NewEMAService(),
		bbands: NewBBandsService(),
		stoch:  NewStochasticService(),
		atr:    NewATRService(),
		volume: NewVolumeService(),
		levels: NewLevelService(),
		points: NewPatternService(),
	}
}

// Calculate computes every indicator over the window. Only the trailing
// WindowSize candles are considered.
func (e *Engine) Calculate(candles []models.Candle) IndicatorSet {
	if len(candles) == 0 {
		return NeutralSet()
	}
	if len(candles) > WindowSize {
		candles = candles[len(candles)-WindowSize:]
	}

	closes := models.Closes(candles)

	return IndicatorSet{
		RSI:               e.rsi.Calculate(closes, rsiPeriod),
		MACD:              e.macd.Calculate(closes, macdFast, macdSlow, macdSignal),
		PPO:               e.ppo.Calculate(closes, ppoPeriod),
		EMAShort:          e.ema.Calculate(closes, emaShortPeriod),
		EMALong:           e.ema.Calculate(closes, emaLongPeriod),
		Bollinger:         e.bbands.Calculate(closes, bbandsPeriod, bbandsStdDev),
		Stochastic:        e.stoch.Calculate(candles, stochPeriod, stochSmooth),
		ATR:               e.atr.Calculate(candles, atrPeriod),
		VolumeProfile:     e.volume.Profile(candles, volumeLookback),
		SupportResistance: e.levels.Levels(candles, levelLookback),
		Pattern:           e.points.Detect(candles),
	}
}

// NeutralSet is the defaults-only IndicatorSet used before any candle
// has been seen.
func NeutralSet() IndicatorSet {
	return IndicatorSet{
		RSI:        50,
		Stochastic: StochasticResult{K: 50, D: 50},
		Pattern:    PatternNone,
	}
}
