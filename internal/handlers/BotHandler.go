package handlers

import (
	"context"
	"fmt"
	"time"

	"RLTradeBot/internal/events"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/operations/exchange"
	"RLTradeBot/internal/repositories"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/risk"
	"RLTradeBot/internal/services/strategy"
	"RLTradeBot/pkg/utils"
)

// CandleSource is the slice of the exchange the driver needs
type CandleSource interface {
	FetchLatestCandle(ctx context.Context, symbol, interval string) (*models.Candle, error)
	GetHistoricalData(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// maxConsecutiveFailures aborts the run once a symbol's fetch keeps
// failing; single failures only skip the tick.
const maxConsecutiveFailures = 5

// BotHandler drives the paper-trading loop: it polls candles on the
// configured timeframe and serializes them into the per-symbol core.
// All symbol processing happens on the polling goroutine, so the core
// never sees concurrent mutation of a symbol's state.
type BotHandler struct {
	source     CandleSource
	candleRepo *repositories.CandleRepository
	analyzer   *market.Analyzer
	engine     *indicators.Engine
	strategy   strategy.Strategy
	risk       *risk.Manager
	paper      *exchange.PaperExchange
	emitter    *events.Emitter
	logger     *utils.Logger

	symbols   []string
	timeframe string

	windows        map[string][]models.Candle
	lastSeen       map[string]time.Time
	failures       map[string]int
	initialBalance float64
	maxBalance     float64
	tradeCount     int
	winCount       int

	rlMetrics func() events.RLMetrics
}

func NewBotHandler(
	source CandleSource,
	candleRepo *repositories.CandleRepository,
	analyzer *market.Analyzer,
	engine *indicators.Engine,
	strat strategy.Strategy,
	riskManager *risk.Manager,
	paper *exchange.PaperExchange,
	emitter *events.Emitter,
	logger *utils.Logger,
	symbols []string,
	timeframe string,
) *BotHandler {
	return &BotHandler{
		source:         source,
		candleRepo:     candleRepo,
		analyzer:       analyzer,
		engine:         engine,
		strategy:       strat,
		risk:           riskManager,
		paper:          paper,
		emitter:        emitter,
		logger:         logger,
		symbols:        symbols,
		timeframe:      timeframe,
		windows:        make(map[string][]models.Candle),
		lastSeen:       make(map[string]time.Time),
		failures:       make(map[string]int),
		initialBalance: paper.Balance(),
		maxBalance:     paper.Balance(),
	}
}

// Run warms up from history and then polls until the context is
// cancelled. An in-flight tick completes before the stop takes effect.
func (h *BotHandler) Run(ctx context.Context) error {
	if err := h.warmup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(timeframeDuration(h.timeframe))
	defer ticker.Stop()

	h.logger.Info("bot: polling %v on %s", h.symbols, h.timeframe)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("bot: stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := h.Poll(ctx); err != nil {
				return err
			}
		}
	}
}

func (h *BotHandler) warmup(ctx context.Context) error {
	for _, symbol := range h.symbols {
		candles, err := h.source.GetHistoricalData(ctx, symbol, h.timeframe, indicators.WindowSize)
		if err != nil {
			return fmt.Errorf("warming up %s: %w", symbol, err)
		}
		for _, candle := range candles {
			h.analyzer.Update(symbol, candle)
			h.appendWindow(symbol, candle)
			h.lastSeen[symbol] = candle.CloseTime
		}
		h.logger.Info("bot: %s warmed up with %d candles", symbol, len(candles))
	}
	return nil
}

// Poll processes one tick for every symbol in turn
func (h *BotHandler) Poll(ctx context.Context) error {
	for _, symbol := range h.symbols {
		if err := h.step(ctx, symbol); err != nil {
			return err
		}
	}
	h.emitMetrics()
	return nil
}

// step fetches the latest candle for one symbol and runs it through
// the core. A fetch failure skips the tick; only repeated failures for
// the same symbol abort the run.
func (h *BotHandler) step(ctx context.Context, symbol string) error {
	candle, err := h.source.FetchLatestCandle(ctx, symbol, h.timeframe)
	if err != nil {
		h.failures[symbol]++
		if h.failures[symbol] >= maxConsecutiveFailures {
			return fmt.Errorf("fetching %s failed %d times in a row: %w",
				symbol, h.failures[symbol], err)
		}
		h.logger.Warn("bot: fetching %s, skipping tick: %v", symbol, err)
		return nil
	}
	h.failures[symbol] = 0
	if candle == nil || !candle.CloseTime.After(h.lastSeen[symbol]) {
		return nil
	}
	h.lastSeen[symbol] = candle.CloseTime

	if h.candleRepo != nil {
		if err := h.candleRepo.Create(candle); err != nil {
			h.logger.Warn("bot: recording candle for %s: %v", symbol, err)
		}
	}

	state := h.analyzer.Update(symbol, *candle)
	h.appendWindow(symbol, *candle)
	h.paper.MarkPrice(symbol, candle.Close)

	// A stop or target close does not consume the tick; the strategy
	// still sees this candle and may re-enter at the same price.
	h.checkExits(symbol, candle.Close)

	set := h.engine.Calculate(h.windows[symbol])
	signal := h.strategy.GenerateSignal(*candle, state, set)
	signal = h.risk.AdjustAction(signal, h.paper.Balance(), h.openCount(), h.drawdown())
	if signal.Action == strategy.ActionHold {
		return nil
	}

	h.emitter.EmitSignal(events.SignalEvent{
		Symbol:     symbol,
		Action:     signal.Action,
		Confidence: signal.Confidence,
		Price:      candle.Close,
		Size:       signal.Size,
		Timestamp:  candle.CloseTime,
	})

	side := models.PositionSideLong
	if signal.Action == strategy.ActionSell {
		side = models.PositionSideShort
	}
	if _, err := h.paper.PlaceOrder(exchange.Order{
		Symbol: symbol,
		Side:   side,
		Type:   exchange.OrderTypeMarket,
		Size:   signal.Size / candle.Close,
	}); err != nil {
		h.logger.Warn("bot: placing order for %s: %v", symbol, err)
		return nil
	}
	h.logger.Info("bot: %s %s at %.4f (%s)", symbol, signal.Action, candle.Close, signal.Reason)
	return nil
}

// checkExits closes an open paper position once the configured stop or
// target threshold is crossed.
func (h *BotHandler) checkExits(symbol string, price float64) bool {
	side, size, entry, ok := h.paper.Position(symbol)
	if !ok {
		return false
	}

	position := &models.Position{Symbol: symbol, Side: side, EntryPrice: entry}
	hit, reason := h.risk.CheckStopLoss(position, price)
	if !hit {
		hit, reason = h.risk.CheckTakeProfit(position, price)
	}
	if !hit {
		return false
	}

	closeSide := models.PositionSideShort
	if side == models.PositionSideShort {
		closeSide = models.PositionSideLong
	}
	before := h.paper.Balance()
	if _, err := h.paper.PlaceOrder(exchange.Order{
		Symbol: symbol,
		Side:   closeSide,
		Type:   exchange.OrderTypeMarket,
		Size:   size,
	}); err != nil {
		h.logger.Warn("bot: closing %s: %v", symbol, err)
		return false
	}

	pnl := h.paper.Balance() - before
	h.tradeCount++
	if pnl > 0 {
		h.winCount++
	}
	h.risk.UpdateDailyPnL(pnl)
	if h.paper.Balance() > h.maxBalance {
		h.maxBalance = h.paper.Balance()
	}
	h.logger.Info("bot: %s closed: %s, pnl %.4f", symbol, reason, pnl)
	return true
}

// SetRLMetricsSource attaches a provider for the agent's training
// metrics. Without one the RL block of each metrics event stays zero.
func (h *BotHandler) SetRLMetricsSource(source func() events.RLMetrics) {
	h.rlMetrics = source
}

func (h *BotHandler) emitMetrics() {
	winRate := 0.0
	if h.tradeCount > 0 {
		winRate = float64(h.winCount) / float64(h.tradeCount) * 100
	}
	event := events.MetricsEvent{
		Balance:    h.paper.Balance(),
		Equity:     h.paper.Balance(),
		Drawdown:   h.drawdown(),
		WinRate:    winRate,
		TradeCount: h.tradeCount,
	}
	if h.rlMetrics != nil {
		event.RL = h.rlMetrics()
	}
	h.emitter.EmitMetrics(event)
}

func (h *BotHandler) appendWindow(symbol string, candle models.Candle) {
	window := append(h.windows[symbol], candle)
	if len(window) > indicators.WindowSize {
		window = window[1:]
	}
	h.windows[symbol] = window
}

func (h *BotHandler) openCount() int {
	count := 0
	for _, symbol := range h.symbols {
		if _, _, _, ok := h.paper.Position(symbol); ok {
			count++
		}
	}
	return count
}

func (h *BotHandler) drawdown() float64 {
	if h.maxBalance <= 0 {
		return 0
	}
	return (h.maxBalance - h.paper.Balance()) / h.maxBalance
}

func timeframeDuration(timeframe string) time.Duration {
	durations := map[string]time.Duration{
		models.TimeFrame1m:  time.Minute,
		models.TimeFrame5m:  5 * time.Minute,
		models.TimeFrame15m: 15 * time.Minute,
		models.TimeFrame1h:  time.Hour,
		models.TimeFrame4h:  4 * time.Hour,
	}
	if d, ok := durations[timeframe]; ok {
		return d
	}
	return 5 * time.Minute
}
