package rl

import (
	"math"
	"math/rand"

	"RLTradeBot/internal/services/market"
	"RLTradeBot/internal/services/strategy"
)

const (
	ActionLong = iota
	ActionShort
	ActionNeutral

	NumActions  = 3
	NumFeatures = 5
)

// Agent is an epsilon-greedy learner over a linear value approximator:
// one weight row per action over the encoded market-state features plus
// a bias term. Learning is a one-step TD update on the taken action.
type Agent struct {
	learningRate float64
	gamma        float64
	epsilon      float64
	weights      [NumActions][NumFeatures + 1]float64
	rng          *rand.Rand
}

func NewAgent(learningRate, gamma, epsilon float64, rng *rand.Rand) *Agent {
	return &Agent{
		learningRate: learningRate,
		gamma:        gamma,
		epsilon:      epsilon,
		rng:          rng,
	}
}

// EncodeState maps the categorical market state onto the fixed numeric
// feature vector the approximator consumes.
func EncodeState(state market.State) [NumFeatures]float64 {
	var features [NumFeatures]float64

	switch state.Trend {
	case market.TrendUp:
		features[0] = 1
	case market.TrendDown:
		features[0] = -1
	}
	switch state.Volatility {
	case market.LevelHigh:
		features[1] = 1
	case market.LevelMedium:
		features[1] = 0.5
	}
	switch state.Volume {
	case market.LevelHigh:
		features[2] = 1
	case market.LevelMedium:
		features[2] = 0.5
	}
	switch state.Momentum {
	case market.MomentumStrong:
		features[3] = 1
	case market.MomentumWeak:
		features[3] = -1
	}
	if state.Regime == market.RegimeBull {
		features[4] = 1
	} else {
		features[4] = -1
	}

	return features
}

// GetAction picks uniformly at random with probability epsilon
// (confidence 0), otherwise the action with the highest approximated
// value, with a softmax probability as confidence.
func (a *Agent) GetAction(state market.State) (int, float64) {
	if a.rng.Float64() < a.epsilon {
		return a.rng.Intn(NumActions), 0
	}

	values := a.Values(state)
	best := 0
	for action := 1; action < NumActions; action++ {
		if values[action] > values[best] {
			best = action
		}
	}

	return best, softmax(values, best)
}

// Epsilon returns the current exploration rate
func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// Values returns the approximated value of every action in a state
func (a *Agent) Values(state market.State) [NumActions]float64 {
	features := EncodeState(state)
	var values [NumActions]float64
	for action := 0; action < NumActions; action++ {
		values[action] = a.value(features, action)
	}
	return values
}

// Learn applies one TD step for the taken action: the target is the
// reward when terminal, reward + gamma * max next-state value otherwise.
func (a *Agent) Learn(state market.State, action int, reward float64, nextState market.State, done bool) {
	target := reward
	if !done {
		next := a.Values(nextState)
		maxNext := next[0]
		for i := 1; i < NumActions; i++ {
			if next[i] > maxNext {
				maxNext = next[i]
			}
		}
		target += a.gamma * maxNext
	}

	features := EncodeState(state)
	tdError := target - a.value(features, action)
	for i := 0; i < NumFeatures; i++ {
		a.weights[action][i] += a.learningRate * tdError * features[i]
	}
	a.weights[action][NumFeatures] += a.learningRate * tdError // bias
}

// ActionName maps an action index onto the signal vocabulary
func ActionName(action int) string {
	switch action {
	case ActionLong:
		return strategy.ActionBuy
	case ActionShort:
		return strategy.ActionSell
	default:
		return strategy.ActionHold
	}
}

// Weights exports the approximator for persistence
func (a *Agent) Weights() [][]float64 {
	weights := make([][]float64, NumActions)
	for action := 0; action < NumActions; action++ {
		row := make([]float64, NumFeatures+1)
		copy(row, a.weights[action][:])
		weights[action] = row
	}
	return weights
}

// SetWeights restores a persisted approximator. Rows with unexpected
// dimensions are rejected by returning false, leaving the agent as-is.
func (a *Agent) SetWeights(weights [][]float64) bool {
	if len(weights) != NumActions {
		return false
	}
	for _, row := range weights {
		if len(row) != NumFeatures+1 {
			return false
		}
	}
	for action := 0; action < NumActions; action++ {
		copy(a.weights[action][:], weights[action])
	}
	return true
}

func (a *Agent) value(features [NumFeatures]float64, action int) float64 {
	value := a.weights[action][NumFeatures] // bias
	for i := 0; i < NumFeatures; i++ {
		value += a.weights[action][i] * features[i]
	}
	return value
}

func softmax(values [NumActions]float64, action int) float64 {
	max := values[0]
	for i := 1; i < NumActions; i++ {
		if values[i] > max {
			max = values[i]
		}
	}
	sum := 0.0
	for i := 0; i < NumActions; i++ {
		sum += math.Exp(values[i] - max)
	}
	return math.Exp(values[action]-max) / sum
}
