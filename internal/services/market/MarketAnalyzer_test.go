package market

import (
	"testing"
	"time"

	"RLTradeBot/internal/models"
)

func feed(t *testing.T, a *Analyzer, symbol string, closes []float64, volume float64) State {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var state State
	for i, c := range closes {
		state = a.Update(symbol, models.Candle{
			Symbol:   symbol,
			OpenTime: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:     c,
			High:     c * 1.001,
			Low:      c * 0.999,
			Close:    c,
			Volume:   volume,
		})
	}
	return state
}

func TestRisingMarketClassifiesUp(t *testing.T) {
	a := NewAnalyzer()

	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	state := feed(t, a, "BTCUSDT", closes, 100)

	if state.Trend != TrendUp {
		t.Errorf("trend = %s, want UP", state.Trend)
	}
	if state.Regime != RegimeBull {
		t.Errorf("regime = %s, want BULL", state.Regime)
	}
	if state.Momentum != MomentumStrong {
		t.Errorf("momentum = %s, want STRONG", state.Momentum)
	}
}

func TestFallingMarketClassifiesDown(t *testing.T) {
	a := NewAnalyzer()

	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	state := feed(t, a, "BTCUSDT", closes, 100)

	if state.Trend != TrendDown {
		t.Errorf("trend = %s, want DOWN", state.Trend)
	}
	if state.Regime != RegimeBear {
		t.Errorf("regime = %s, want BEAR", state.Regime)
	}
	if state.Momentum != MomentumWeak {
		t.Errorf("momentum = %s, want WEAK", state.Momentum)
	}
}

func TestVolumeSpikeClassifiesHigh(t *testing.T) {
	a := NewAnalyzer()

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	feed(t, a, "ETHUSDT", closes, 100)

	state := a.Update("ETHUSDT", models.Candle{
		Symbol: "ETHUSDT", Open: 100, High: 100.1, Low: 99.9, Close: 100, Volume: 500,
	})
	if state.Volume != LevelHigh {
		t.Errorf("volume = %s, want HIGH after spike", state.Volume)
	}
}

func TestWindowBounded(t *testing.T) {
	a := NewAnalyzer()

	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 100
	}
	feed(t, a, "BTCUSDT", closes, 100)

	if got := len(a.Window("BTCUSDT")); got != 100 {
		t.Errorf("window size = %d, want 100", got)
	}
}

func TestStateUnknownSymbol(t *testing.T) {
	a := NewAnalyzer()
	if _, err := a.State("NOPE"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestStatesIsolatedPerSymbol(t *testing.T) {
	a := NewAnalyzer()

	up := make([]float64, 80)
	down := make([]float64, 80)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 200 - float64(i)
	}
	feed(t, a, "UPUSDT", up, 100)
	feed(t, a, "DOWNUSDT", down, 100)

	upState, _ := a.State("UPUSDT")
	downState, _ := a.State("DOWNUSDT")
	if upState.Trend != TrendUp || downState.Trend != TrendDown {
		t.Errorf("per-symbol states merged: up=%s down=%s", upState.Trend, downState.Trend)
	}
}
