package events

import (
	"sync"
	"time"
)

// SignalEvent is published whenever the strategy produces an actionable
// signal.
type SignalEvent struct {
	Symbol     string
	Action     string
	Confidence float64
	Price      float64
	Size       float64
	Timestamp  time.Time
}

// RLMetrics is the learning slice of a metrics snapshot
type RLMetrics struct {
	Episodes   int
	LastReward float64
	Epsilon    float64
}

// MetricsEvent is a periodic account snapshot for external consumers
type MetricsEvent struct {
	Balance    float64
	Equity     float64
	Drawdown   float64
	WinRate    float64
	TradeCount int
	RL         RLMetrics
}

// Emitter is a callback registry for signal and metrics events.
// Callbacks run synchronously on the emitting goroutine; slow consumers
// should hand off to their own workers.
type Emitter struct {
	mu        sync.RWMutex
	onSignal  []func(SignalEvent)
	onMetrics []func(MetricsEvent)
}

func NewEmitter() *Emitter {
	return &Emitter{}
}

func (e *Emitter) SubscribeSignal(handler func(SignalEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSignal = append(e.onSignal, handler)
}

func (e *Emitter) SubscribeMetrics(handler func(MetricsEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMetrics = append(e.onMetrics, handler)
}

func (e *Emitter) EmitSignal(event SignalEvent) {
	e.mu.RLock()
	handlers := e.onSignal
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (e *Emitter) EmitMetrics(event MetricsEvent) {
	e.mu.RLock()
	handlers := e.onMetrics
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
