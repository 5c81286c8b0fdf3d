package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SimulatorGateway 实现了 OrderGateway 接口
// 模拟盘：订单总是以请求中的参考价全额成交，不产生任何外部副作用
type SimulatorGateway struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex // 保护订单流水
	nextID  int64
	history []*Fill
}

// NewSimulatorGateway 构造函数
func NewSimulatorGateway(logger *zap.SugaredLogger) *SimulatorGateway {
	return &SimulatorGateway{logger: logger}
}

// PlaceOrder 模拟下单，立即返回成交回报
func (g *SimulatorGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Quantity.IsZero() || req.Quantity.IsNegative() {
		return nil, fmt.Errorf("invalid order quantity: %s", req.Quantity)
	}
	if req.Price.IsZero() || req.Price.IsNegative() {
		return nil, fmt.Errorf("invalid order price: %s", req.Price)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	fill := &Fill{
		OrderID:  fmt.Sprintf("sim-%d", g.nextID),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.Price,
		FilledAt: time.Now(),
	}
	g.history = append(g.history, fill)

	g.logger.Infow("Sim ORDER FILLED",
		"order_id", fill.OrderID,
		"symbol", fill.Symbol,
		"side", string(fill.Side),
		"quantity", fill.Quantity.String(),
		"price", fill.Price.String())

	return fill, nil
}

// OrderHistory 返回订单流水的副本，防止外部修改
func (g *SimulatorGateway) OrderHistory() []*Fill {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Fill, len(g.history))
	copy(out, g.history)
	return out
}
