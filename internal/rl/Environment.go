package rl

import (
	"math/rand"

	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/strategy"
)

// TradingState is the episodic view the agent observes. One instance
// per episode, reset at episode start, never shared across episodes.
type TradingState struct {
	Balance       float64
	Equity        float64
	OpenPositions int
	Drawdown      float64
	WinRate       float64
	TradeCount    int
	LastAction    string
	LastReward    float64
	Market        market.State
	Indicators    indicators.IndicatorSet
}

// StepResult carries one transition out of the environment
type StepResult struct {
	NextState     TradingState
	Reward        float64
	Done          bool
	TradeExecuted bool
	PnL           float64
}

// Environment wraps trading as an episodic MDP. Fills are a stand-in
// Bernoulli draw of ±1% of the order size; there is no real execution
// behind a step. The rand source is injected so runs can be replayed.
type Environment struct {
	initialBalance float64
	state          TradingState
	maxDrawdown    float64
	totalPnL       float64
	winCount       int
	tradeCount     int
	rng            *rand.Rand
}

func NewEnvironment(initialBalance float64, rng *rand.Rand) *Environment {
	e := &Environment{
		initialBalance: initialBalance,
		rng:            rng,
	}
	e.state = e.initialState()
	return e
}

// Reset starts a fresh episode with zeroed counters
func (e *Environment) Reset() TradingState {
	e.maxDrawdown = 0
	e.totalPnL = 0
	e.winCount = 0
	e.tradeCount = 0
	e.state = e.initialState()
	return e.state
}

// State returns the current observation
func (e *Environment) State() TradingState {
	return e.state
}

// Step executes one agent action against the current candle. A non-HOLD
// action simulates a fill, applies ±1% of size as pnl, and rewards
// ±1; HOLD is reward 0. The episode ends past 50% drawdown, past 100
// trades, or once the balance doubles.
func (e *Environment) Step(signal strategy.Signal, candle models.Candle, state market.State, set indicators.IndicatorSet) StepResult {
	reward := 0.0
	pnl := 0.0
	executed := false

	if signal.Action != strategy.ActionHold {
		executed = true
		e.tradeCount++

		if e.rng.Float64() > 0.5 {
			e.winCount++
			pnl = signal.Size * 0.01
			reward = 1
		} else {
			pnl = -signal.Size * 0.01
			reward = -1
		}

		e.state.Balance += pnl
		e.totalPnL += pnl

		drawdown := (e.initialBalance - e.state.Balance) / e.initialBalance
		if drawdown > e.maxDrawdown {
			e.maxDrawdown = drawdown
		}
		e.state.Drawdown = e.maxDrawdown
	}

	e.state.Equity = e.state.Balance
	e.state.TradeCount = e.tradeCount
	if e.tradeCount > 0 {
		e.state.WinRate = float64(e.winCount) / float64(e.tradeCount)
	}
	e.state.LastAction = signal.Action
	e.state.LastReward = reward
	e.state.Market = state
	e.state.Indicators = set

	done := e.state.Drawdown > 0.5 ||
		e.tradeCount > 100 ||
		e.state.Balance >= e.initialBalance*2

	return StepResult{
		NextState:     e.state,
		Reward:        reward,
		Done:          done,
		TradeExecuted: executed,
		PnL:           pnl,
	}
}

func (e *Environment) initialState() TradingState {
	return TradingState{
		Balance:    e.initialBalance,
		Equity:     e.initialBalance,
		WinRate:    1,
		LastAction: strategy.ActionHold,
		Market:     market.NeutralState(),
		Indicators: indicators.NeutralSet(),
	}
}
