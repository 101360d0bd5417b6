package risk

import (
	"fmt"
	"math"
	"testing"

	"RLTradeBot/config"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/strategy"
)

type fakeStates struct {
	states map[string]market.State
}

func (f *fakeStates) State(symbol string) (market.State, error) {
	state, ok := f.states[symbol]
	if !ok {
		return market.State{}, fmt.Errorf("no market state for symbol %s", symbol)
	}
	return state, nil
}

func testConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxRiskPerTrade:      0.02,
		MaxLeverage:          1,
		MaxOpenPositions:     1,
		StopLossDistance:     0.02,
		TakeProfitDistance:   0.04,
		TrailingStopDistance: 0.01,
	}
}

func neutralStates() *fakeStates {
	return &fakeStates{states: map[string]market.State{
		"BTCUSDT": market.NeutralState(),
	}}
}

func TestPositionSize(t *testing.T) {
	m := NewManager(testConfig(), 10000, neutralStates())

	size := m.PositionSize(100, 98, 1)
	if math.Abs(size-100) > 1e-9 {
		t.Errorf("expected size 100, got %f", size)
	}

	leveraged := m.PositionSize(100, 98, 2)
	if math.Abs(leveraged-200) > 1e-9 {
		t.Errorf("expected leveraged size 200, got %f", leveraged)
	}

	if got := m.PositionSize(100, 100, 1); got != 0 {
		t.Errorf("expected zero size for zero stop distance, got %f", got)
	}
}

func TestValidatePosition(t *testing.T) {
	cfg := testConfig()
	m := NewManager(cfg, 10000, neutralStates())

	good := &models.Position{
		Symbol:     "BTCUSDT",
		Side:       models.PositionSideLong,
		EntryPrice: 100,
		StopLoss:   98,
		TakeProfit: 104,
		Size:       50,
		Leverage:   1,
	}

	if a := m.ValidatePosition(good, 0); !a.IsSafe {
		t.Errorf("expected valid position, got rejection: %s", a.Reason)
	}

	if a := m.ValidatePosition(good, cfg.MaxOpenPositions); a.IsSafe {
		t.Error("expected rejection at open position cap")
	}

	leveraged := *good
	leveraged.Leverage = 5
	if a := m.ValidatePosition(&leveraged, 0); a.IsSafe {
		t.Error("expected rejection for excessive leverage")
	}

	oversized := *good
	oversized.Size = 500
	if a := m.ValidatePosition(&oversized, 0); a.IsSafe {
		t.Error("expected rejection for oversized position")
	}

	wideStop := *good
	wideStop.StopLoss = 90
	wideStop.Size = 10
	if a := m.ValidatePosition(&wideStop, 0); a.IsSafe {
		t.Error("expected rejection for stop distance over maximum")
	}
}

func TestTrailingStopMonotone(t *testing.T) {
	m := NewManager(testConfig(), 10000, neutralStates())

	stop := 98.0
	stop = m.TrailingStop(100, models.PositionSideLong, stop)
	if math.Abs(stop-99) > 1e-9 {
		t.Errorf("expected stop raised to 99, got %f", stop)
	}

	// falling price must not loosen the stop
	stop = m.TrailingStop(99.5, models.PositionSideLong, stop)
	if math.Abs(stop-99) > 1e-9 {
		t.Errorf("expected stop unchanged at 99, got %f", stop)
	}

	stop = m.TrailingStop(105, models.PositionSideLong, stop)
	if math.Abs(stop-103.95) > 1e-9 {
		t.Errorf("expected stop raised to 103.95, got %f", stop)
	}

	shortStop := 102.0
	shortStop = m.TrailingStop(100, models.PositionSideShort, shortStop)
	if math.Abs(shortStop-101) > 1e-9 {
		t.Errorf("expected short stop lowered to 101, got %f", shortStop)
	}
	shortStop = m.TrailingStop(100.5, models.PositionSideShort, shortStop)
	if math.Abs(shortStop-101) > 1e-9 {
		t.Errorf("expected short stop unchanged at 101, got %f", shortStop)
	}
}

func TestCheckStopLossAndTakeProfit(t *testing.T) {
	m := NewManager(testConfig(), 10000, neutralStates())

	long := &models.Position{
		Side:       models.PositionSideLong,
		EntryPrice: 100,
	}

	if hit, _ := m.CheckStopLoss(long, 98.01); hit {
		t.Error("stop should not trigger above threshold")
	}
	hit, reason := m.CheckStopLoss(long, 97.99)
	if !hit {
		t.Error("expected stop loss to trigger at 97.99")
	}
	if reason == "" {
		t.Error("expected a close reason")
	}

	if hit, _ := m.CheckTakeProfit(long, 103.99); hit {
		t.Error("take profit should not trigger below target")
	}
	if hit, _ := m.CheckTakeProfit(long, 104.01); !hit {
		t.Error("expected take profit to trigger at 104.01")
	}

	short := &models.Position{
		Side:       models.PositionSideShort,
		EntryPrice: 100,
	}
	if hit, _ := m.CheckStopLoss(short, 102.01); !hit {
		t.Error("expected short stop loss to trigger at 102.01")
	}
	if hit, _ := m.CheckTakeProfit(short, 95.99); !hit {
		t.Error("expected short take profit to trigger at 95.99")
	}
}

func TestAdjustAction(t *testing.T) {
	m := NewManager(testConfig(), 10000, neutralStates())

	signal := strategy.Signal{
		Action:     strategy.ActionBuy,
		Confidence: 0.5,
		Size:       1,
		Reason:     "test",
	}

	adjusted := m.AdjustAction(signal, 10000, 0, 0)
	if adjusted.Action != strategy.ActionBuy {
		t.Fatalf("expected buy to pass through, got %s", adjusted.Action)
	}
	// 10000 * 0.02 / 0.02 * 0.5 = 5000, under the 10000 leverage cap
	if math.Abs(adjusted.Size-5000) > 1e-9 {
		t.Errorf("expected adjusted size 5000, got %f", adjusted.Size)
	}

	full := signal
	full.Confidence = 1.5
	capped := m.AdjustAction(full, 10000, 0, 0)
	if capped.Size > 10000 {
		t.Errorf("expected size capped at 10000, got %f", capped.Size)
	}

	if got := m.AdjustAction(signal, 10000, 1, 0); got.Action != strategy.ActionHold {
		t.Error("expected hold at the open position cap")
	}
	if got := m.AdjustAction(signal, 10000, 0, 0.25); got.Action != strategy.ActionHold {
		t.Error("expected hold above drawdown limit")
	}

	hold := strategy.Hold("no edge")
	if got := m.AdjustAction(hold, 10000, 0, 0); got.Action != strategy.ActionHold {
		t.Error("expected hold to pass through untouched")
	}
}

func TestDailyLossLimit(t *testing.T) {
	m := NewManager(testConfig(), 10000, neutralStates())

	signal := strategy.Signal{Action: strategy.ActionBuy, Confidence: 0.5}

	m.UpdateDailyPnL(-600)
	if got := m.AdjustAction(signal, 10000, 0, 0); got.Action != strategy.ActionHold {
		t.Error("expected hold after daily loss limit breach")
	}

	a, err := m.AssessRisk("BTCUSDT", models.PositionSideLong, 100, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsSafe {
		t.Error("expected risk rejection after daily loss limit breach")
	}

	m.ResetDailyPnL()
	if got := m.AdjustAction(signal, 10000, 0, 0); got.Action != strategy.ActionBuy {
		t.Error("expected trading to resume after daily reset")
	}
}

func TestAssessRisk(t *testing.T) {
	states := neutralStates()
	m := NewManager(testConfig(), 10000, states)

	a, err := m.AssessRisk("BTCUSDT", models.PositionSideLong, 100, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.IsSafe {
		t.Errorf("expected safe assessment, got: %s", a.Reason)
	}

	a, err = m.AssessRisk("BTCUSDT", models.PositionSideLong, 100, 10, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsSafe {
		t.Error("expected rejection for position value over risk budget")
	}

	a, err = m.AssessRisk("BTCUSDT", models.PositionSideLong, 100, 1, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsSafe {
		t.Error("expected rejection at the open position cap")
	}

	if _, err := m.AssessRisk("DOGEUSDT", models.PositionSideLong, 100, 1, 1, 0); err == nil {
		t.Error("expected error for unknown symbol state")
	}

	down := market.NeutralState()
	down.Trend = market.TrendDown
	states.states["ETHUSDT"] = down
	a, err = m.AssessRisk("ETHUSDT", models.PositionSideLong, 100, 1, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsSafe {
		t.Error("expected rejection for long entry in a downtrend")
	}
}
