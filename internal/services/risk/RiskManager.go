package risk

import (
	"fmt"
	"math"

	"RLTradeBot/config"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/strategy"
)

// Assessment is the structured pass/fail result of a risk check.
// Ordinary rejections are values, never errors.
type Assessment struct {
	IsSafe bool
	Reason string
}

// StateProvider supplies the current market classification for a symbol.
type StateProvider interface {
	State(symbol string) (market.State, error)
}

// Manager sizes and validates positions under a fixed risk budget. The
// config is read-only; capital and daily pnl are the only mutable state.
// Position inventory is owned by the caller and passed in per check.
type Manager struct {
	cfg      config.RiskConfig
	capital  float64
	dailyPnL float64
	states   StateProvider
}

func NewManager(cfg config.RiskConfig, capital float64, states StateProvider) *Manager {
	return &Manager{
		cfg:     cfg,
		capital: capital,
		states:  states,
	}
}

// PositionSize converts the per-trade risk budget into a size given the
// stop distance: risk amount / price distance, scaled by leverage.
func (m *Manager) PositionSize(entryPrice, stopLoss, leverage float64) float64 {
	distance := math.Abs(entryPrice - stopLoss)
	if distance == 0 {
		return 0
	}
	riskAmount := m.capital * m.cfg.MaxRiskPerTrade
	return riskAmount / distance * leverage
}

// ValidatePosition rejects a proposed position that exceeds any
// configured limit. openPositions is the current open count.
func (m *Manager) ValidatePosition(position *models.Position, openPositions int) Assessment {
	if openPositions >= m.cfg.MaxOpenPositions {
		return Assessment{Reason: "maximum open positions reached"}
	}
	if position.Leverage > m.cfg.MaxLeverage {
		return Assessment{Reason: "leverage exceeds maximum allowed"}
	}

	allowed := m.PositionSize(position.EntryPrice, position.StopLoss, position.Leverage)
	if position.Size > allowed {
		return Assessment{Reason: "size exceeds risk-computed maximum"}
	}

	if position.EntryPrice > 0 {
		const tolerance = 1e-9
		stopDistance := math.Abs(position.EntryPrice-position.StopLoss) / position.EntryPrice
		takeDistance := math.Abs(position.EntryPrice-position.TakeProfit) / position.EntryPrice
		if stopDistance > m.cfg.StopLossDistance+tolerance {
			return Assessment{Reason: "stop loss distance exceeds maximum"}
		}
		if takeDistance > m.cfg.TakeProfitDistance+tolerance {
			return Assessment{Reason: "take profit distance exceeds maximum"}
		}
	}

	return Assessment{IsSafe: true}
}

// StopLossPrice places the stop on the loss side of entry for the side.
func (m *Manager) StopLossPrice(entryPrice float64, side string) float64 {
	if side == models.PositionSideLong {
		return entryPrice * (1 - m.cfg.StopLossDistance)
	}
	return entryPrice * (1 + m.cfg.StopLossDistance)
}

// TakeProfitPrice places the target on the profit side of entry.
func (m *Manager) TakeProfitPrice(entryPrice float64, side string) float64 {
	if side == models.PositionSideLong {
		return entryPrice * (1 + m.cfg.TakeProfitDistance)
	}
	return entryPrice * (1 - m.cfg.TakeProfitDistance)
}

// TrailingStop tightens a stop towards the current price and never
// loosens it: monotonically non-decreasing for longs, non-increasing
// for shorts.
func (m *Manager) TrailingStop(currentPrice float64, side string, stopLoss float64) float64 {
	if side == models.PositionSideLong {
		return math.Max(stopLoss, currentPrice*(1-m.cfg.TrailingStopDistance))
	}
	return math.Min(stopLoss, currentPrice*(1+m.cfg.TrailingStopDistance))
}

// CheckStopLoss triggers a close when price crosses the configured stop
// threshold on the loss side of entry.
func (m *Manager) CheckStopLoss(position *models.Position, currentPrice float64) (bool, string) {
	stop := m.StopLossPrice(position.EntryPrice, position.Side)
	if position.Side == models.PositionSideLong && currentPrice <= stop {
		return true, "stop loss triggered for long position"
	}
	if position.Side == models.PositionSideShort && currentPrice >= stop {
		return true, "stop loss triggered for short position"
	}
	return false, ""
}

// CheckTakeProfit triggers a close when price crosses the configured
// target on the profit side of entry.
func (m *Manager) CheckTakeProfit(position *models.Position, currentPrice float64) (bool, string) {
	target := m.TakeProfitPrice(position.EntryPrice, position.Side)
	if position.Side == models.PositionSideLong && currentPrice >= target {
		return true, "take profit triggered for long position"
	}
	if position.Side == models.PositionSideShort && currentPrice <= target {
		return true, "take profit triggered for short position"
	}
	return false, ""
}

// AdjustAction filters an action through the risk budget: forced HOLD
// at the open-position cap, above 20% drawdown, or past the daily loss
// limit. Otherwise the size is recomputed from balance and stop
// distance, scaled by confidence, capped at balance times max leverage.
func (m *Manager) AdjustAction(signal strategy.Signal, balance float64, openPositions int, drawdown float64) strategy.Signal {
	if signal.Action == strategy.ActionHold {
		return signal
	}
	if openPositions >= m.cfg.MaxOpenPositions {
		return strategy.Hold("maximum open positions reached")
	}
	if drawdown > 0.2 {
		return strategy.Hold("drawdown limit reached")
	}
	if m.dailyLossExceeded() {
		return strategy.Hold("daily loss limit reached")
	}

	size := 0.0
	if m.cfg.StopLossDistance > 0 {
		size = balance * m.cfg.MaxRiskPerTrade / m.cfg.StopLossDistance
	}
	size *= signal.Confidence
	size = math.Min(size, balance*m.cfg.MaxLeverage)

	adjusted := signal
	adjusted.Size = size
	return adjusted
}

// AssessRisk is the pre-trade gate. Only a failed market-state lookup
// is an error; every ordinary rejection comes back as an Assessment.
func (m *Manager) AssessRisk(symbol, side string, price, size, leverage float64, openPositions int) (Assessment, error) {
	if openPositions >= m.cfg.MaxOpenPositions {
		return Assessment{Reason: "maximum open positions reached"}, nil
	}

	positionValue := price * size * leverage
	if positionValue > m.capital*m.cfg.MaxRiskPerTrade {
		return Assessment{Reason: "position value exceeds risk per trade"}, nil
	}

	if leverage > m.cfg.MaxLeverage {
		return Assessment{Reason: "leverage exceeds maximum allowed"}, nil
	}

	if m.dailyLossExceeded() {
		return Assessment{Reason: "daily loss limit exceeded"}, nil
	}

	state, err := m.states.State(symbol)
	if err != nil {
		return Assessment{}, fmt.Errorf("market state lookup failed: %w", err)
	}
	if reason := unfavorableMarket(state, side); reason != "" {
		return Assessment{Reason: reason}, nil
	}

	return Assessment{IsSafe: true}, nil
}

// UpdateDailyPnL accumulates realized pnl against the daily loss limit
func (m *Manager) UpdateDailyPnL(pnl float64) {
	m.dailyPnL += pnl
}

// ResetDailyPnL starts a new accounting day
func (m *Manager) ResetDailyPnL() {
	m.dailyPnL = 0
}

// UpdateCapital tracks the account balance the budget is computed from
func (m *Manager) UpdateCapital(capital float64) {
	m.capital = capital
}

func (m *Manager) dailyLossExceeded() bool {
	return m.dailyPnL < -(m.capital * 0.05)
}

func unfavorableMarket(state market.State, side string) string {
	if side == models.PositionSideLong && state.Trend == market.TrendDown {
		return "downtrend against long entry"
	}
	if side == models.PositionSideShort && state.Trend == market.TrendUp {
		return "uptrend against short entry"
	}
	if side == models.PositionSideLong && state.Momentum == market.MomentumWeak {
		return "weak momentum against long entry"
	}
	if side == models.PositionSideShort && state.Momentum == market.MomentumStrong {
		return "strong momentum against short entry"
	}
	return ""
}
