package rl

import (
	"context"
	"time"

	"RLTradeBot/internal/events"
	"RLTradeBot/internal/models"
	"RLTradeBot/internal/services/indicators"
	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/risk"
	"RLTradeBot/internal/services/strategy"
	"RLTradeBot/pkg/utils"
)

const warmupBars = 100

// replayCap bounds the transition buffer across episodes
const replayCap = 1000

// TrainingStats summarizes the last episode of a training run
type TrainingStats struct {
	Episodes     int
	FinalBalance float64
	WinRate      float64
	TradeCount   int
	ReplaySize   int
}

// transition is one recorded TD step kept for batch replay
type transition struct {
	state  market.State
	action int
	reward float64
	next   market.State
	done   bool
}

// Trainer drives the agent through episodes over historical candles.
// Each step runs the full decision path: market classification,
// indicator calculation, agent action, risk adjustment, simulated fill.
// Transitions accumulate in a replay buffer; after every episode the
// most recent batch is replayed through the agent.
type Trainer struct {
	agent       *Agent
	env         *Environment
	engine      *indicators.Engine
	riskManager *risk.Manager
	store       *ModelStore
	logger      *utils.Logger

	modelPath       string
	retrainInterval time.Duration
	batchSize       int
	lastTrained     time.Time

	replay        []transition
	totalEpisodes int
	lastReward    float64
}

func NewTrainer(
	agent *Agent,
	env *Environment,
	engine *indicators.Engine,
	riskManager *risk.Manager,
	store *ModelStore,
	logger *utils.Logger,
	modelPath string,
	retrainInterval time.Duration,
	batchSize int,
) *Trainer {
	return &Trainer{
		agent:           agent,
		env:             env,
		engine:          engine,
		riskManager:     riskManager,
		store:           store,
		logger:          logger,
		modelPath:       modelPath,
		retrainInterval: retrainInterval,
		batchSize:       batchSize,
	}
}

// LoadModel restores persisted weights. A load failure is non-fatal:
// the agent keeps its fresh initialization.
func (t *Trainer) LoadModel() {
	if err := t.store.Load(t.modelPath, t.agent); err != nil {
		t.logger.Warn("rl: loading model, starting fresh: %v", err)
		return
	}
	t.logger.Info("rl: model restored from %s", t.modelPath)
}

// ShouldRetrain reports whether the retrain interval has elapsed
func (t *Trainer) ShouldRetrain(now time.Time) bool {
	return now.Sub(t.lastTrained) >= t.retrainInterval
}

// Metrics reports the trainer's lifetime progress for monitoring
func (t *Trainer) Metrics() events.RLMetrics {
	return events.RLMetrics{
		Episodes:   t.totalEpisodes,
		LastReward: t.lastReward,
		Epsilon:    t.agent.Epsilon(),
	}
}

// Train runs the requested number of episodes over one candle series
// and persists the weights afterwards. Cancellation is checked once per
// candle; an in-flight step completes before the stop takes effect.
func (t *Trainer) Train(ctx context.Context, symbol string, candles []models.Candle, episodes int) (TrainingStats, error) {
	stats := TrainingStats{}

	for episode := 0; episode < episodes; episode++ {
		state, err := t.runEpisode(ctx, symbol, candles)
		if err != nil {
			return stats, err
		}
		t.replayBatch()
		t.totalEpisodes++
		stats.Episodes++
		stats.FinalBalance = state.Balance
		stats.WinRate = state.WinRate
		stats.TradeCount = state.TradeCount
		stats.ReplaySize = len(t.replay)

		t.logger.Info("rl: episode %d done: balance %.2f, win rate %.2f, trades %d",
			episode+1, state.Balance, state.WinRate, state.TradeCount)
	}

	t.lastTrained = time.Now()
	if err := t.store.Save(t.modelPath, t.agent); err != nil {
		t.logger.Warn("rl: saving model: %v", err)
	}
	return stats, nil
}

func (t *Trainer) runEpisode(ctx context.Context, symbol string, candles []models.Candle) (TradingState, error) {
	t.env.Reset()

	// windows restart per episode so replays of the same series see
	// identical market states
	analyzer := market.NewAnalyzer()
	window := make([]models.Candle, 0, indicators.WindowSize)

	havePrev := false
	var prevState market.State
	var prevAction int
	var prevReward float64

	for i, candle := range candles {
		select {
		case <-ctx.Done():
			return t.env.State(), ctx.Err()
		default:
		}

		mstate := analyzer.Update(symbol, candle)
		window = append(window, candle)
		if len(window) > indicators.WindowSize {
			window = window[1:]
		}
		if i < warmupBars {
			continue
		}

		if havePrev {
			t.learn(transition{prevState, prevAction, prevReward, mstate, false})
		}

		set := t.engine.Calculate(window)
		action, confidence := t.agent.GetAction(mstate)

		current := t.env.State()
		signal := t.riskManager.AdjustAction(strategy.Signal{
			Action:     ActionName(action),
			Confidence: confidence,
			Reason:     "rl policy",
		}, current.Balance, current.OpenPositions, current.Drawdown)

		result := t.env.Step(signal, candle, mstate, set)
		t.lastReward = result.Reward

		if result.Done {
			t.learn(transition{mstate, action, result.Reward, mstate, true})
			break
		}

		prevState = mstate
		prevAction = action
		prevReward = result.Reward
		havePrev = true
	}

	return t.env.State(), nil
}

// learn applies a TD step and records the transition for replay
func (t *Trainer) learn(tr transition) {
	t.agent.Learn(tr.state, tr.action, tr.reward, tr.next, tr.done)
	t.replay = append(t.replay, tr)
	if len(t.replay) > replayCap {
		t.replay = t.replay[len(t.replay)-replayCap:]
	}
}

// replayBatch re-learns the most recent batch of recorded transitions
func (t *Trainer) replayBatch() {
	if t.batchSize <= 0 || len(t.replay) == 0 {
		return
	}
	start := len(t.replay) - t.batchSize
	if start < 0 {
		start = 0
	}
	for _, tr := range t.replay[start:] {
		t.agent.Learn(tr.state, tr.action, tr.reward, tr.next, tr.done)
	}
}
