package exchange

import (
	"math"
	"testing"

	"RLTradeBot/internal/models"
	"RLTradeBot/pkg/utils"
)

func TestPaperExchangeOpenAndClose(t *testing.T) {
	paper := NewPaperExchange(10000, utils.NewLogger("ERROR"))
	paper.MarkPrice("BTCUSDT", 100)

	fill, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Type:   OrderTypeMarket,
		Size:   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fill.FilledPrice != 100 {
		t.Errorf("expected fill at marked price 100, got %f", fill.FilledPrice)
	}
	if fill.ID == "" || fill.Timestamp.IsZero() {
		t.Errorf("incomplete fill report: %+v", fill)
	}

	side, size, entry, ok := paper.Position("BTCUSDT")
	if !ok || side != models.PositionSideLong || size != 2 || entry != 100 {
		t.Errorf("unexpected position: %s %f @ %f (ok=%v)", side, size, entry, ok)
	}

	paper.MarkPrice("BTCUSDT", 110)
	if _, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideShort,
		Type:   OrderTypeMarket,
		Size:   2,
	}); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	if math.Abs(paper.Balance()-10020) > 1e-9 {
		t.Errorf("expected balance 10020 after +10x2 pnl, got %f", paper.Balance())
	}
	if _, _, _, ok := paper.Position("BTCUSDT"); ok {
		t.Error("expected position to be closed")
	}
}

func TestPaperExchangeShortPnL(t *testing.T) {
	paper := NewPaperExchange(1000, utils.NewLogger("ERROR"))
	paper.MarkPrice("ETHUSDT", 50)

	if _, err := paper.PlaceOrder(Order{
		Symbol: "ETHUSDT",
		Side:   models.PositionSideShort,
		Type:   OrderTypeMarket,
		Size:   10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paper.MarkPrice("ETHUSDT", 45)
	if _, err := paper.PlaceOrder(Order{
		Symbol: "ETHUSDT",
		Side:   models.PositionSideLong,
		Type:   OrderTypeMarket,
		Size:   10,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// short from 50 to 45 wins 5 per unit
	if math.Abs(paper.Balance()-1050) > 1e-9 {
		t.Errorf("expected balance 1050, got %f", paper.Balance())
	}
}

func TestPaperExchangeRejections(t *testing.T) {
	paper := NewPaperExchange(1000, utils.NewLogger("ERROR"))

	if _, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Size:   1,
	}); err == nil {
		t.Error("expected rejection without a marked price")
	}

	paper.MarkPrice("BTCUSDT", 100)
	if _, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Size:   0,
	}); err == nil {
		t.Error("expected rejection for zero size")
	}

	if _, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Size:   1,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Size:   1,
	}); err == nil {
		t.Error("expected rejection for a second same-side order")
	}
}

func TestPaperExchangeLimitPrice(t *testing.T) {
	paper := NewPaperExchange(1000, utils.NewLogger("ERROR"))

	fill, err := paper.PlaceOrder(Order{
		Symbol: "BTCUSDT",
		Side:   models.PositionSideLong,
		Type:   OrderTypeLimit,
		Size:   1,
		Price:  95,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fill.FilledPrice != 95 {
		t.Errorf("expected limit fill at 95, got %f", fill.FilledPrice)
	}
}
