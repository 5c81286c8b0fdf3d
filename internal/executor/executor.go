package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Side 是订单方向 (交易所语义的 buy/sell，与持仓方向 LONG/SHORT 解耦)
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderRequest 是核心层向执行层发出的市价单指令
type OrderRequest struct {
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal // 决策时的参考价，模拟盘按它成交
}

// Fill 是订单的成交回报
type Fill struct {
	OrderID  string
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	FilledAt time.Time
}

// OrderGateway 是交易执行器的通用接口
// 下单失败时必须返回 error，调用方据此放弃对应的状态变更
type OrderGateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*Fill, error)
}
