package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"RLTradeBot/internal/models"
	"RLTradeBot/internal/repositories"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/risk"
	"RLTradeBot/internal/services/strategy"
	"RLTradeBot/pkg/utils"
)

// Engine replays candle history through the strategy and risk stack.
// Per symbol the position state machine is FLAT -> OPEN -> FLAT: no
// partial fills, no averaging in, at most one open position per symbol.
type Engine struct {
	candleRepo   *repositories.CandleRepository
	positionRepo *repositories.PositionRepository
	tradeRepo    *repositories.TradeRepository

	strategy    strategy.Strategy
	riskManager *risk.Manager
	analyzer    *market.Analyzer
	indicators  *indicators.Engine
	logger      *utils.Logger

	config Config

	currentBalance float64
	maxBalance     float64
	positions      map[string]*models.Position
	trades         []models.TradeRecord
	equityCurve    []EquityPoint
}

// NewEngine wires a simulation run. The repositories may be nil, in
// which case the run is in-memory only and nothing is persisted.
func NewEngine(
	candleRepo *repositories.CandleRepository,
	positionRepo *repositories.PositionRepository,
	tradeRepo *repositories.TradeRepository,
	strat strategy.Strategy,
	riskManager *risk.Manager,
	analyzer *market.Analyzer,
	engine *indicators.Engine,
	logger *utils.Logger,
	config Config,
) *Engine {
	return &Engine{
		candleRepo:     candleRepo,
		positionRepo:   positionRepo,
		tradeRepo:      tradeRepo,
		strategy:       strat,
		riskManager:    riskManager,
		analyzer:       analyzer,
		indicators:     engine,
		logger:         logger,
		config:         config,
		currentBalance: config.InitialBalance,
		maxBalance:     config.InitialBalance,
		positions:      make(map[string]*models.Position),
		trades:         make([]models.TradeRecord, 0),
		equityCurve: []EquityPoint{
			{Balance: config.InitialBalance},
		},
	}
}

// RunBacktest loads candles from the repository for every configured
// symbol, replays them, and finalizes the aggregate results.
func (e *Engine) RunBacktest(ctx context.Context) (*BacktestResults, error) {
	if e.candleRepo == nil {
		return nil, fmt.Errorf("backtest: candle repository not configured")
	}

	for _, symbol := range e.config.Symbols {
		candles, err := e.candleRepo.GetCandles(symbol, e.config.TimeFrame, e.config.Limit)
		if err != nil {
			return nil, fmt.Errorf("loading candles for %s: %w", symbol, err)
		}
		e.logger.Info("backtest: %s loaded %d candles", symbol, len(candles))

		if err := e.RunSymbol(ctx, symbol, candles); err != nil {
			return nil, err
		}
	}

	return e.Results(), nil
}

// RunSymbol replays one chronological candle series. The market window
// and indicators are fed every candle; trading starts after warm-up.
func (e *Engine) RunSymbol(ctx context.Context, symbol string, candles []models.Candle) error {
	window := make([]models.Candle, 0, indicators.WindowSize)

	for i, candle := range candles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		state := e.analyzer.Update(symbol, candle)
		window = append(window, candle)
		if len(window) > indicators.WindowSize {
			window = window[1:]
		}

		if i < e.config.WarmupBars {
			continue
		}

		// Exits do not consume the candle. A close falls through to
		// signal generation so a fresh entry can open on the same bar.
		if position := e.positions[symbol]; position != nil {
			e.checkExit(position, candle)
		}

		set := e.indicators.Calculate(window)
		signal := e.strategy.GenerateSignal(candle, state, set)

		if signal.Action == strategy.ActionHold || signal.Confidence < e.config.ConfidenceThreshold {
			continue
		}
		if e.positions[symbol] != nil {
			continue
		}

		if err := e.openPosition(symbol, signal, candle); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) openPosition(symbol string, signal strategy.Signal, candle models.Candle) error {
	side := models.PositionSideLong
	if signal.Action == strategy.ActionSell {
		side = models.PositionSideShort
	}

	entry := candle.Close
	stop := e.riskManager.StopLossPrice(entry, side)
	take := e.riskManager.TakeProfitPrice(entry, side)
	size := e.riskManager.PositionSize(entry, stop, e.config.Leverage)
	if size <= 0 {
		return nil
	}

	position := &models.Position{
		Symbol:     symbol,
		Side:       side,
		Size:       size,
		Leverage:   e.config.Leverage,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: take,
		EntryTime:  candle.CloseTime,
		Status:     models.PositionStatusOpen,
		Confidence: signal.Confidence,
	}

	if e.positionRepo != nil {
		if err := e.positionRepo.Create(position); err != nil {
			return fmt.Errorf("opening position for %s: %w", symbol, err)
		}
	}

	e.positions[symbol] = position
	e.logger.Debug("backtest: %s opened %s at %.4f, stop %.4f (%s)",
		symbol, side, entry, stop, signal.Reason)
	return nil
}

// checkExit evaluates the trailing stop and take profit against the
// candle close. When neither triggers, the stop is tightened.
func (e *Engine) checkExit(position *models.Position, candle models.Candle) bool {
	price := candle.Close

	if hitStop(position, price) {
		e.closePosition(position, price, candle.CloseTime, "trailing_stop")
		return true
	}
	if hitTakeProfit(position, price) {
		e.closePosition(position, price, candle.CloseTime, "take_profit")
		return true
	}

	position.StopLoss = e.riskManager.TrailingStop(price, position.Side, position.StopLoss)
	return false
}

func hitStop(position *models.Position, price float64) bool {
	if position.Side == models.PositionSideLong {
		return price <= position.StopLoss
	}
	return price >= position.StopLoss
}

func hitTakeProfit(position *models.Position, price float64) bool {
	if position.Side == models.PositionSideLong {
		return price >= position.TakeProfit
	}
	return price <= position.TakeProfit
}

func (e *Engine) closePosition(position *models.Position, exitPrice float64, exitTime time.Time, reason string) {
	pnl := (exitPrice - position.EntryPrice) * position.Size
	if position.Side == models.PositionSideShort {
		pnl = -pnl
	}
	pnlPercent := 0.0
	if position.EntryPrice > 0 {
		pnlPercent = (exitPrice - position.EntryPrice) / position.EntryPrice * 100
		if position.Side == models.PositionSideShort {
			pnlPercent = -pnlPercent
		}
	}

	trade := models.TradeRecord{
		Symbol:     position.Symbol,
		Side:       position.Side,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exitPrice,
		EntryTime:  position.EntryTime,
		ExitTime:   exitTime,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		Reason:     reason,
	}

	position.Status = models.PositionStatusClosed
	position.CloseTime = exitTime
	position.PnL = pnl

	if e.positionRepo != nil {
		if err := e.positionRepo.Update(position); err != nil {
			e.logger.Warn("backtest: updating closed position: %v", err)
		}
	}
	if e.tradeRepo != nil {
		if err := e.tradeRepo.Create(&trade); err != nil {
			e.logger.Warn("backtest: recording trade: %v", err)
		}
	}

	e.currentBalance += pnl
	if e.currentBalance > e.maxBalance {
		e.maxBalance = e.currentBalance
	}
	e.riskManager.UpdateDailyPnL(pnl)
	e.trades = append(e.trades, trade)
	e.equityCurve = append(e.equityCurve, EquityPoint{
		Timestamp: exitTime,
		Balance:   e.currentBalance,
	})
	delete(e.positions, position.Symbol)

	e.logger.Debug("backtest: %s closed %s at %.4f, pnl %.4f (%s)",
		position.Symbol, position.Side, exitPrice, pnl, reason)
}

// Results finalizes the aggregate metrics for the run so far.
func (e *Engine) Results() *BacktestResults {
	results := &BacktestResults{
		FinalBalance: e.currentBalance,
		Trades:       e.trades,
		EquityCurve:  e.equityCurve,
		MaxDrawdown:  e.maxDrawdown(),
	}
	if len(e.trades) == 0 {
		return results
	}

	totalPnL := 0.0
	for _, trade := range e.trades {
		if trade.PnL > 0 {
			results.WinningTrades++
		} else {
			results.LosingTrades++
		}
		totalPnL += trade.PnL
	}

	results.TotalTrades = len(e.trades)
	results.WinRate = float64(results.WinningTrades) / float64(results.TotalTrades) * 100
	results.TotalPnL = totalPnL
	results.AveragePnL = totalPnL / float64(results.TotalTrades)
	results.SharpeRatio = e.sharpeRatio()
	return results
}

// PerformanceMetrics converts a finished run into the summary the
// strategy tuning loop consumes. days is the span the run covered.
func (e *Engine) PerformanceMetrics(days float64) strategy.PerformanceMetrics {
	results := e.Results()
	return strategy.PerformanceMetrics{
		TotalTrades:   results.TotalTrades,
		WinningTrades: results.WinningTrades,
		LosingTrades:  results.LosingTrades,
		WinRate:       results.WinRate,
		TotalPnL:      results.TotalPnL,
		MaxDrawdown:   results.MaxDrawdown,
		Days:          days,
	}
}

// maxDrawdown is the largest peak-to-trough percentage decline of the
// equity curve, in [0,100].
func (e *Engine) maxDrawdown() float64 {
	maxDrawdown := 0.0
	peak := e.config.InitialBalance

	for _, point := range e.equityCurve {
		if point.Balance > peak {
			peak = point.Balance
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - point.Balance) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	if maxDrawdown > 100 {
		maxDrawdown = 100
	}
	return maxDrawdown
}

// sharpeRatio is the mean per-trade percentage return over its standard
// deviation, 0 when the deviation is 0.
func (e *Engine) sharpeRatio() float64 {
	if len(e.trades) < 2 {
		return 0
	}

	mean := 0.0
	for _, trade := range e.trades {
		mean += trade.PnLPercent
	}
	mean /= float64(len(e.trades))

	variance := 0.0
	for _, trade := range e.trades {
		variance += math.Pow(trade.PnLPercent-mean, 2)
	}
	variance /= float64(len(e.trades) - 1)
	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}
