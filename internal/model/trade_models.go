package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ActionType 定义了信号引擎的决策类型
type ActionType string

const (
	ActionBuy   ActionType = "BUY"
	ActionShort ActionType = "SHORT"
	ActionHold  ActionType = "HOLD"
)

// Direction 定义了持仓方向
type Direction string

const (
	DirLong  Direction = "LONG"
	DirShort Direction = "SHORT"
)

func (d Direction) String() string {
	return string(d)
}

// Decision 是信号引擎的输出
// BUY/SHORT 时携带支撑该信号的新闻标题，供开仓通知引用
type Decision struct {
	Action    ActionType
	Headlines []Headline
	Reason    string // 决策 (尤其是 HOLD) 的文字说明，用于日志
}

func (d Decision) String() string {
	return fmt.Sprintf("DECISION [%s] %s", d.Action, d.Reason)
}

// Position 代表一个已开仓位，由 Portfolio Manager 独占管理
// 开仓时创建，平仓时销毁，中途只允许刷新 MarkPrice
type Position struct {
	Symbol     string          `json:"symbol"`
	Side       Direction       `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	MarkPrice  decimal.Decimal `json:"mark_price"` // 该标的最近一次评估时的报价，用于净值估算
	OpenedAt   time.Time       `json:"opened_at"`
}

// EntryNotional 返回开仓时占用的名义价值 (quantity × entry_price)
func (p *Position) EntryNotional() decimal.Decimal {
	return p.Quantity.Mul(p.EntryPrice)
}

// MarketValue 按最近标记价估算仓位市值
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.MarkPrice)
}

// PnLPct 按给定报价计算收益百分比
// LONG: (price-entry)/entry×100；SHORT: (entry-price)/entry×100
func (p *Position) PnLPct(price decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if p.Side == DirShort {
		return p.EntryPrice.Sub(price).Div(p.EntryPrice).Mul(hundred)
	}
	return price.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(hundred)
}

// RealizedPnL 按平仓价计算已实现盈亏 (绝对值，USD)
func (p *Position) RealizedPnL(exitPrice decimal.Decimal) decimal.Decimal {
	if p.Side == DirShort {
		return p.EntryPrice.Sub(exitPrice).Mul(p.Quantity)
	}
	return exitPrice.Sub(p.EntryPrice).Mul(p.Quantity)
}

// TradeRecord 记录一次完整的开仓和平仓交易
type TradeRecord struct {
	EntryTime     time.Time       `json:"entry_time"`
	ExitTime      time.Time       `json:"exit_time"`
	Symbol        string          `json:"symbol"`
	Side          Direction       `json:"side"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	ExitPrice     decimal.Decimal `json:"exit_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	TriggerReason string          `json:"trigger_reason"` // 平仓原因: "TP" 或 "SL"
}

// Portfolio 是评估周期之间持久化的全部组合状态
// 每个周期从 State Store 加载、在内存中变更、周期末整体写回
type Portfolio struct {
	Cash           decimal.Decimal      `json:"cash"`
	InitialCapital decimal.Decimal      `json:"initial_capital"`
	Positions      map[string]*Position `json:"positions"`
	DayStartEquity decimal.Decimal      `json:"day_start_equity"`
	DayStart       time.Time            `json:"day_start"` // 当前交易日的锚点，外层调度按日历日切换
	TradingPaused  bool                 `json:"trading_paused"`
	Trades         []TradeRecord        `json:"trades"`
}

// NewPortfolio 以初始资金创建空组合
func NewPortfolio(initialCapital decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:           initialCapital,
		InitialCapital: initialCapital,
		Positions:      make(map[string]*Position),
		DayStartEquity: initialCapital,
	}
}

// Equity 返回组合净值 = 现金 + Σ 仓位市值 (按各自的标记价)
func (p *Portfolio) Equity() decimal.Decimal {
	equity := p.Cash
	for _, pos := range p.Positions {
		equity = equity.Add(pos.MarketValue())
	}
	return equity
}

// InvestedNotional 返回当前所有持仓占用的开仓名义价值之和
func (p *Portfolio) InvestedNotional() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.Positions {
		total = total.Add(pos.EntryNotional())
	}
	return total
}

// StartNewDay 在日历日切换时重置熔断锚点
// 熔断是日内单向闩锁，只能在这里被解除
func (p *Portfolio) StartNewDay(now time.Time) {
	p.DayStartEquity = p.Equity()
	p.DayStart = now
	p.TradingPaused = false
}

// NotificationKind 区分通知的触发场景
type NotificationKind string

const (
	NotifyEntry   NotificationKind = "ENTRY"
	NotifyExit    NotificationKind = "EXIT"
	NotifyPaused  NotificationKind = "PAUSED"
	NotifyStartup NotificationKind = "STARTUP"
)

// NotificationRequest 是 Portfolio Manager 返回的待发送通知意图
// 发送本身由外层的 Notifier 完成，失败不会影响组合状态
type NotificationRequest struct {
	Kind    NotificationKind
	Symbol  string
	Message string
}
