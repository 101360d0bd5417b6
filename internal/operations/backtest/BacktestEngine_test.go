package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"RLTradeBot/config"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/risk"
	"RLTradeBot/internal/services/strategy"
	"RLTradeBot/pkg/utils"
)

type stubStrategy struct {
	signal strategy.Signal
}

func (s *stubStrategy) GenerateSignal(models.Candle, market.State, indicators.IndicatorSet) strategy.Signal {
	return s.signal
}

func candleSeries(closes []float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, close := range closes {
		open := close
		if i > 0 {
			open = closes[i-1]
		}
		openTime := start.Add(time.Duration(i) * 5 * time.Minute)
		candles[i] = models.Candle{
			Symbol:    "BTCUSDT",
			TimeFrame: models.TimeFrame5m,
			OpenTime:  openTime,
			CloseTime: openTime.Add(5 * time.Minute),
			Open:      open,
			High:      math.Max(open, close) + 0.5,
			Low:       math.Min(open, close) - 0.5,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

func testEngine(strat strategy.Strategy, riskCfg config.RiskConfig) *Engine {
	analyzer := market.NewAnalyzer()
	manager := risk.NewManager(riskCfg, 10000, analyzer)
	cfg := NewConfig()
	cfg.Symbols = []string{"BTCUSDT"}
	return NewEngine(nil, nil, nil, strat, manager, analyzer,
		indicators.NewEngine(), utils.NewLogger("ERROR"), cfg)
}

func wideTakeConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxRiskPerTrade:      0.02,
		MaxLeverage:          1,
		MaxOpenPositions:     1,
		StopLossDistance:     0.02,
		TakeProfitDistance:   0.5,
		TrailingStopDistance: 0.01,
	}
}

func TestEngineTrailingStopLong(t *testing.T) {
	buy := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.9, Size: 1, Reason: "test",
	}}
	engine := testEngine(buy, wideTakeConfig())

	// flat warm-up, entry at 100, trail up to 110, pull back to 107
	closes := make([]float64, 0, 120)
	for i := 0; i < 101; i++ {
		closes = append(closes, 100)
	}
	for price := 101.0; price <= 110; price++ {
		closes = append(closes, price)
	}
	closes = append(closes, 107)

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := engine.Results()
	if results.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", results.TotalTrades)
	}
	trade := results.Trades[0]
	if trade.Reason != "trailing_stop" {
		t.Errorf("expected trailing_stop exit, got %s", trade.Reason)
	}
	// size = 10000*0.02/2 = 100, pnl = (107-100)*100
	if math.Abs(trade.PnL-700) > 1e-6 {
		t.Errorf("expected pnl 700, got %f", trade.PnL)
	}
	if math.Abs(results.FinalBalance-10700) > 1e-6 {
		t.Errorf("expected final balance 10700, got %f", results.FinalBalance)
	}
	if results.WinRate != 100 {
		t.Errorf("expected win rate 100, got %f", results.WinRate)
	}
}

func TestEngineShortPnLSignFlipped(t *testing.T) {
	sell := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionSell, Confidence: 0.8, Size: 1, Reason: "test",
	}}
	engine := testEngine(sell, wideTakeConfig())

	closes := make([]float64, 0, 120)
	for i := 0; i < 101; i++ {
		closes = append(closes, 100)
	}
	for price := 99.0; price >= 90; price-- {
		closes = append(closes, price)
	}
	closes = append(closes, 92)

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := engine.Results()
	if results.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", results.TotalTrades)
	}
	trade := results.Trades[0]
	if trade.Side != models.PositionSideShort {
		t.Fatalf("expected short trade, got %s", trade.Side)
	}
	// entry 100, exit 92 on the bounce into the trailed stop
	if math.Abs(trade.PnL-800) > 1e-6 {
		t.Errorf("expected pnl 800, got %f", trade.PnL)
	}
	if trade.PnLPercent <= 0 {
		t.Errorf("expected positive pnl percent for a winning short, got %f", trade.PnLPercent)
	}
}

func TestEngineConfidenceGate(t *testing.T) {
	weak := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.5, Size: 1, Reason: "test",
	}}
	engine := testEngine(weak, wideTakeConfig())

	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := engine.Results().TotalTrades; got != 0 {
		t.Errorf("expected no trades below the confidence gate, got %d", got)
	}
}

func TestEngineWarmupAndLossAccounting(t *testing.T) {
	buy := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.9, Size: 1, Reason: "test",
	}}
	engine := testEngine(buy, wideTakeConfig())

	// flat through warm-up and beyond, then a drop through the stop
	closes := make([]float64, 0, 122)
	for i := 0; i < 120; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 97)

	candles := candleSeries(closes)
	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := engine.Results()
	if results.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", results.TotalTrades)
	}
	trade := results.Trades[0]
	if !trade.EntryTime.Equal(candles[WarmupBars].CloseTime) {
		t.Errorf("expected entry on the first post-warm-up candle, entered at %v", trade.EntryTime)
	}
	if trade.PnL >= 0 {
		t.Errorf("expected a losing trade, got pnl %f", trade.PnL)
	}
	if results.LosingTrades != 1 || results.WinRate != 0 {
		t.Errorf("expected 1 losing trade and 0 win rate, got %d / %f",
			results.LosingTrades, results.WinRate)
	}
	// pnl = (97-100)*100 = -300 against a 10000 peak
	if math.Abs(results.MaxDrawdown-3) > 1e-6 {
		t.Errorf("expected 3%% drawdown, got %f", results.MaxDrawdown)
	}
}

func TestEngineReentersOnCloseBar(t *testing.T) {
	buy := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.9, Size: 1, Reason: "test",
	}}
	engine := testEngine(buy, wideTakeConfig())

	// entry at 100, stop-out at 97, second stop-out at 94
	closes := make([]float64, 0, 103)
	for i := 0; i < 101; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 97, 94)

	candles := candleSeries(closes)
	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := engine.Results()
	if results.TotalTrades != 2 {
		t.Fatalf("expected 2 trades, got %d", results.TotalTrades)
	}
	// a close does not consume the candle: the second trade opens on the
	// same bar the first one exits
	first, second := results.Trades[0], results.Trades[1]
	if !second.EntryTime.Equal(first.ExitTime) {
		t.Errorf("expected re-entry on the close bar %v, entered at %v",
			first.ExitTime, second.EntryTime)
	}
	if !first.ExitTime.Equal(candles[101].CloseTime) {
		t.Errorf("expected first exit at %v, got %v", candles[101].CloseTime, first.ExitTime)
	}
	if second.EntryPrice != 97 {
		t.Errorf("expected re-entry at the close bar price 97, got %f", second.EntryPrice)
	}
}

func TestEngineResultInvariants(t *testing.T) {
	buy := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.9, Size: 1, Reason: "test",
	}}
	engine := testEngine(buy, wideTakeConfig())

	// two full trade cycles: win on the trail, then a stop-out
	closes := make([]float64, 0, 140)
	for i := 0; i < 101; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 105, 110, 107) // trail exit
	closes = append(closes, 107, 103)      // re-entry at 107, stop-out

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := engine.Results()
	if results.WinningTrades+results.LosingTrades != results.TotalTrades {
		t.Errorf("win/loss counts do not sum to total: %d + %d != %d",
			results.WinningTrades, results.LosingTrades, results.TotalTrades)
	}
	if results.TotalTrades != len(results.Trades) {
		t.Errorf("total %d does not match trade list length %d",
			results.TotalTrades, len(results.Trades))
	}
	if results.MaxDrawdown < 0 || results.MaxDrawdown > 100 {
		t.Errorf("drawdown out of bounds: %f", results.MaxDrawdown)
	}
	if results.WinRate < 0 || results.WinRate > 100 {
		t.Errorf("win rate out of bounds: %f", results.WinRate)
	}
}

func TestEnginePPOStrategyRisingMarket(t *testing.T) {
	engine := testEngine(strategy.New("ppo", 0.2, 0.1), wideTakeConfig())

	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i)*100.0/149.0
	}

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, trade := range engine.Results().Trades {
		if trade.Side == models.PositionSideShort {
			t.Errorf("unexpected short trade in a strictly rising market")
		}
	}
}

func TestEngineContextCancellation(t *testing.T) {
	engine := testEngine(&stubStrategy{signal: strategy.Hold("idle")}, wideTakeConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.RunSymbol(ctx, "BTCUSDT", candleSeries([]float64{100, 101}))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestEnginePerformanceMetrics(t *testing.T) {
	buy := &stubStrategy{signal: strategy.Signal{
		Action: strategy.ActionBuy, Confidence: 0.9, Size: 1, Reason: "test",
	}}
	engine := testEngine(buy, wideTakeConfig())

	closes := make([]float64, 0, 120)
	for i := 0; i < 101; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 105, 110, 107)

	if err := engine.RunSymbol(context.Background(), "BTCUSDT", candleSeries(closes)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	metrics := engine.PerformanceMetrics(7)
	if metrics.TotalTrades != 1 || metrics.Days != 7 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
	if metrics.TotalPnL <= 0 {
		t.Errorf("expected positive total pnl, got %f", metrics.TotalPnL)
	}
}
