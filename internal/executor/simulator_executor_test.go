package executor

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestSimulatorFillsAtRequestedPrice(t *testing.T) {
	g := NewSimulatorGateway(zap.NewNop().Sugar())

	req := OrderRequest{
		Symbol:   "AAPL",
		Side:     SideBuy,
		Quantity: decimal.RequireFromString("1.5"),
		Price:    decimal.RequireFromString("187.91"),
	}
	fill, err := g.PlaceOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !fill.Price.Equal(req.Price) {
		t.Fatalf("simulator must fill at the quoted price, got %s", fill.Price)
	}
	if !fill.Quantity.Equal(req.Quantity) {
		t.Fatalf("quantity mismatch: %s", fill.Quantity)
	}
	if fill.OrderID == "" {
		t.Fatal("expected an order id")
	}
	if len(g.OrderHistory()) != 1 {
		t.Fatal("expected order recorded in history")
	}
}

func TestSimulatorRejectsInvalidOrders(t *testing.T) {
	g := NewSimulatorGateway(zap.NewNop().Sugar())

	cases := []OrderRequest{
		{Symbol: "AAPL", Side: SideBuy, Quantity: decimal.Zero, Price: decimal.RequireFromString("10")},
		{Symbol: "AAPL", Side: SideSell, Quantity: decimal.RequireFromString("1"), Price: decimal.Zero},
	}
	for _, req := range cases {
		if _, err := g.PlaceOrder(context.Background(), req); err == nil {
			t.Fatalf("expected rejection for %+v", req)
		}
	}
	if len(g.OrderHistory()) != 0 {
		t.Fatal("rejected orders must not enter history")
	}
}

func TestSimulatorHonoursCancelledContext(t *testing.T) {
	g := NewSimulatorGateway(zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.PlaceOrder(ctx, OrderRequest{
		Symbol:   "AAPL",
		Side:     SideBuy,
		Quantity: decimal.RequireFromString("1"),
		Price:    decimal.RequireFromString("10"),
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
