package exchange

import (
	"fmt"
	"sync"
	"time"

	"RLTradeBot/internal/models"
	"RLTradeBot/pkg/utils"
)

// Order is a paper/live order request. Price is optional; a zero price
// fills at the last marked price for the symbol.
type Order struct {
	Symbol string
	Side   string // models.PositionSideLong / models.PositionSideShort
	Type   string
	Size   float64
	Price  float64
}

// Fill is the execution report for an accepted order
type Fill struct {
	ID          string
	FilledPrice float64
	Timestamp   time.Time
}

const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

type paperPosition struct {
	side       string
	size       float64
	entryPrice float64
}

// PaperExchange fills orders instantly against the last marked price
// and keeps balance and per-symbol position accounting. At most one
// position per symbol; an order on the opposite side closes it and
// realizes the pnl.
type PaperExchange struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]*paperPosition
	lastPrice map[string]float64
	nextID    int64
	logger    *utils.Logger
}

func NewPaperExchange(initialBalance float64, logger *utils.Logger) *PaperExchange {
	return &PaperExchange{
		balance:   initialBalance,
		positions: make(map[string]*paperPosition),
		lastPrice: make(map[string]float64),
		logger:    logger,
	}
}

// MarkPrice records the latest traded price used for market fills
func (e *PaperExchange) MarkPrice(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastPrice[symbol] = price
}

// PlaceOrder fills an order at its limit price or the marked price.
// Same-side orders while a position is open are rejected.
func (e *PaperExchange) PlaceOrder(order Order) (Fill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	price := order.Price
	if price == 0 {
		price = e.lastPrice[order.Symbol]
	}
	if price <= 0 {
		return Fill{}, fmt.Errorf("no price available for %s", order.Symbol)
	}
	if order.Size <= 0 {
		return Fill{}, fmt.Errorf("invalid order size %f", order.Size)
	}

	position := e.positions[order.Symbol]
	switch {
	case position == nil:
		e.positions[order.Symbol] = &paperPosition{
			side:       order.Side,
			size:       order.Size,
			entryPrice: price,
		}
		e.logger.Debug("paper: opened %s %s %.6f at %.4f",
			order.Side, order.Symbol, order.Size, price)

	case position.side != order.Side:
		pnl := (price - position.entryPrice) * position.size
		if position.side == models.PositionSideShort {
			pnl = -pnl
		}
		e.balance += pnl
		delete(e.positions, order.Symbol)
		e.logger.Debug("paper: closed %s %s at %.4f, pnl %.4f",
			position.side, order.Symbol, price, pnl)

	default:
		return Fill{}, fmt.Errorf("position already open for %s", order.Symbol)
	}

	e.nextID++
	return Fill{
		ID:          fmt.Sprintf("paper-%d", e.nextID),
		FilledPrice: price,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Balance returns the realized account balance
func (e *PaperExchange) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Position reports the open position for a symbol, if any
func (e *PaperExchange) Position(symbol string) (side string, size, entryPrice float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	position := e.positions[symbol]
	if position == nil {
		return "", 0, 0, false
	}
	return position.side, position.size, position.entryPrice, true
}
