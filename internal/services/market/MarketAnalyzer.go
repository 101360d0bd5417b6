package market

import (
	"fmt"
	"math"

	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
)

const (
	TrendUp       = "UP"
	TrendDown     = "DOWN"
	TrendSideways = "SIDEWAYS"

	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"

	MomentumStrong  = "STRONG"
	MomentumWeak    = "WEAK"
	MomentumNeutral = "NEUTRAL"

	RegimeBull = "BULL"
	RegimeBear = "BEAR"
)

// State is the per-symbol market classification, fully recomputed and
// overwritten on every update.
type State struct {
	Trend      string
	Volatility string
	Volume     string
	Momentum   string
	Regime     string
}

// NeutralState is the classification before any candle has been seen.
func NeutralState() State {
	return State{
		Trend:      TrendSideways,
		Volatility: LevelMedium,
		Volume:     LevelMedium,
		Momentum:   MomentumNeutral,
		Regime:     RegimeBull,
	}
}

const windowSize = 100

// Analyzer maintains a bounded candle window per symbol and classifies
// market state from it. A symbol's window has a single writer; callers
// running symbols in parallel must use independent analyzers.
type Analyzer struct {
	ema     *indicators.EMAService
	macd    *indicators.MACDService
	volume  *indicators.VolumeService
	windows map[string][]models.Candle
	states  map[string]State
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		ema:     indicators.NewEMAService(),
		macd:    indicators.NewMACDService(),
		volume:  indicators.NewVolumeService(),
		windows: make(map[string][]models.Candle),
		states:  make(map[string]State),
	}
}

// Update appends a candle to the symbol's window and recomputes the
// full market state.
func (a *Analyzer) Update(symbol string, candle models.Candle) State {
	window := append(a.windows[symbol], candle)
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}
	a.windows[symbol] = window

	state := a.classify(window)
	a.states[symbol] = state
	return state
}

// State returns the last computed classification. An unknown symbol is
// an infrastructure error, not a neutral default.
func (a *Analyzer) State(symbol string) (State, error) {
	state, ok := a.states[symbol]
	if !ok {
		return State{}, fmt.Errorf("no market state for symbol %s", symbol)
	}
	return state, nil
}

// Window exposes the current candle window, most recent last.
func (a *Analyzer) Window(symbol string) []models.Candle {
	return a.windows[symbol]
}

func (a *Analyzer) classify(window []models.Candle) State {
	closes := models.Closes(window)
	volumes := models.Volumes(window)

	// Trend: short SMA against long SMA
	sma20 := a.ema.SMA(closes, 20)
	sma50 := a.ema.SMA(closes, 50)
	trend := TrendDown
	regime := RegimeBear
	if sma20 > sma50 {
		trend = TrendUp
		regime = RegimeBull
	}

	// Volatility: stdev of per-bar returns
	volatility := returnStdDev(closes)
	volLevel := LevelLow
	if volatility > 0.02 {
		volLevel = LevelHigh
	} else if volatility > 0.01 {
		volLevel = LevelMedium
	}

	// Volume: latest bar against the trailing 20-bar average
	ratio := a.volume.Ratio(volumes, 20)
	volumeLevel := LevelLow
	if ratio > 1.5 {
		volumeLevel = LevelHigh
	} else if ratio > 0.8 {
		volumeLevel = LevelMedium
	}

	// Momentum from the MACD histogram sign
	macd := a.macd.Calculate(closes, 12, 26, 9)
	momentum := MomentumNeutral
	if macd.Histogram > 0 {
		momentum = MomentumStrong
	} else if macd.Histogram < 0 {
		momentum = MomentumWeak
	}

	return State{
		Trend:      trend,
		Volatility: volLevel,
		Volume:     volumeLevel,
		Momentum:   momentum,
		Regime:     regime,
	}
}

func returnStdDev(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance)
}
