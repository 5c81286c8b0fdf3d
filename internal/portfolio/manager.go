// Package portfolio 实现组合状态机：开仓/平仓、风控检查和日内熔断
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/executor"
	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
)

var hundred = decimal.NewFromInt(100)

// Manager 消费信号决策并独占维护 Portfolio
// 除通过注入的 OrderGateway 下单外不做任何 I/O；
// 通知和持久化以意图的形式交还给调用方
type Manager struct {
	gateway executor.OrderGateway
	logger  *zap.SugaredLogger

	tradeFraction   decimal.Decimal
	minNotional     decimal.Decimal
	profitThreshold decimal.Decimal
	stopLoss        decimal.Decimal
	stopLossEnabled bool
	allocationCap   decimal.Decimal // 占初始资金的百分比，<=0 表示不限制
	dailyTarget     decimal.Decimal
	qtyPrecision    int32
}

// NewManager 按配置初始化组合管理器，金额参数统一转为 decimal
func NewManager(cfg *service.PortfolioConfig, gateway executor.OrderGateway, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		gateway:         gateway,
		logger:          logger,
		tradeFraction:   decimal.NewFromFloat(cfg.TradeFraction),
		minNotional:     decimal.NewFromFloat(cfg.MinTradeNotional),
		profitThreshold: decimal.NewFromFloat(cfg.ProfitThresholdPct),
		stopLoss:        decimal.NewFromFloat(cfg.StopLossPct),
		stopLossEnabled: cfg.StopLossEnabled,
		allocationCap:   decimal.NewFromFloat(cfg.AllocationCapPct),
		dailyTarget:     decimal.NewFromFloat(cfg.DailyTargetPct),
		qtyPrecision:    cfg.QuantityPrecision,
	}
}

// Evaluate 对单个标的执行一次状态机推进
// 每次真实的状态变更 (开仓/平仓/熔断触发) 恰好产生一条通知意图；
// 被规则拒绝的入场只记日志。下单失败时不应用对应的状态变更。
func (m *Manager) Evaluate(
	ctx context.Context,
	symbol string,
	quote model.PricePoint,
	decision model.Decision,
	pf *model.Portfolio,
) ([]model.NotificationRequest, error) {

	var notes []model.NotificationRequest

	// 先刷新本标的的标记价，让净值和熔断判断基于最新已知报价
	pos, open := pf.Positions[symbol]
	if open {
		pos.MarkPrice = quote.Price
	}

	// ------------------------------------------------------------------
	// 日内熔断：净值涨幅达到目标后挂起新开仓，只允许平仓
	// 单向闩锁，解除只能由外层的日界逻辑 (StartNewDay) 完成
	// ------------------------------------------------------------------
	if !pf.TradingPaused && m.dailyTarget.IsPositive() && pf.DayStartEquity.IsPositive() {
		equity := pf.Equity()
		gainPct := equity.Sub(pf.DayStartEquity).Div(pf.DayStartEquity).Mul(hundred)
		if gainPct.GreaterThanOrEqual(m.dailyTarget) {
			pf.TradingPaused = true
			m.logger.Infow("Daily profit target reached, pausing new entries",
				"equity", equity.String(),
				"day_start_equity", pf.DayStartEquity.String(),
				"gain_pct", gainPct.StringFixed(2))
			notes = append(notes, model.NotificationRequest{
				Kind:   model.NotifyPaused,
				Symbol: symbol,
				Message: fmt.Sprintf("⏸ Daily target hit: equity %s (+%s%%). New entries paused until next trading day.",
					equity.StringFixed(2), gainPct.StringFixed(2)),
			})
		}
	}

	if open {
		note, err := m.evaluateExit(ctx, pos, quote, pf)
		if err != nil {
			return notes, err
		}
		if note != nil {
			notes = append(notes, *note)
		}
		// 持仓标的当周期不再考虑入场 (每标的最多一个仓位，禁止加仓)
		return notes, nil
	}

	if decision.Action == model.ActionHold {
		return notes, nil
	}
	if pf.TradingPaused {
		m.logger.Debugw("Entry skipped: trading paused for the day", "symbol", symbol, "action", string(decision.Action))
		return notes, nil
	}

	note, err := m.evaluateEntry(ctx, symbol, quote, decision, pf)
	if err != nil {
		return notes, err
	}
	if note != nil {
		notes = append(notes, *note)
	}
	return notes, nil
}

// evaluateExit 检查止盈/止损并在触发时平仓
func (m *Manager) evaluateExit(
	ctx context.Context,
	pos *model.Position,
	quote model.PricePoint,
	pf *model.Portfolio,
) (*model.NotificationRequest, error) {

	pnlPct := pos.PnLPct(quote.Price)

	trigger := ""
	if pnlPct.GreaterThanOrEqual(m.profitThreshold) {
		trigger = "TP"
	} else if m.stopLossEnabled && pnlPct.LessThanOrEqual(m.stopLoss) {
		trigger = "SL"
	}
	if trigger == "" {
		// 未触发退出条件，仓位保持不动，等待下一个周期
		return nil, nil
	}

	// 先下平仓单，成交确认后才允许变更组合状态
	fill, err := m.gateway.PlaceOrder(ctx, executor.OrderRequest{
		Symbol:   pos.Symbol,
		Side:     closingSide(pos.Side),
		Quantity: pos.Quantity,
		Price:    quote.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("close order for %s: %w", pos.Symbol, err)
	}

	proceeds := pos.Quantity.Mul(fill.Price)
	realized := pos.RealizedPnL(fill.Price)

	pf.Cash = pf.Cash.Add(proceeds)
	delete(pf.Positions, pos.Symbol)
	pf.Trades = append(pf.Trades, model.TradeRecord{
		EntryTime:     pos.OpenedAt,
		ExitTime:      quote.Timestamp,
		Symbol:        pos.Symbol,
		Side:          pos.Side,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     fill.Price,
		Quantity:      pos.Quantity,
		RealizedPnL:   realized,
		TriggerReason: trigger,
	})

	m.logger.Infow("Position closed",
		"symbol", pos.Symbol,
		"side", pos.Side.String(),
		"trigger", trigger,
		"exit_price", fill.Price.String(),
		"pnl_pct", pnlPct.StringFixed(2),
		"realized_pnl", realized.StringFixed(4),
		"cash", pf.Cash.String())

	return &model.NotificationRequest{
		Kind:   model.NotifyExit,
		Symbol: pos.Symbol,
		Message: fmt.Sprintf("CLOSE %s %s %s @ %s | PnL %s%% (%s USD) [%s]",
			pos.Side, pos.Quantity.String(), pos.Symbol, fill.Price.StringFixed(4),
			pnlPct.StringFixed(2), realized.StringFixed(4), trigger),
	}, nil
}

// evaluateEntry 执行入场前的全部风控检查并开仓
func (m *Manager) evaluateEntry(
	ctx context.Context,
	symbol string,
	quote model.PricePoint,
	decision model.Decision,
	pf *model.Portfolio,
) (*model.NotificationRequest, error) {

	if quote.Price.IsZero() || quote.Price.IsNegative() {
		m.logger.Warnw("Entry rejected: invalid quote price", "symbol", symbol, "price", quote.Price.String())
		return nil, nil
	}

	// 基础仓位 = 可用现金的固定比例
	notional := pf.Cash.Mul(m.tradeFraction)

	// 总持仓上限：剩余额度不足时以额度封顶，而不是直接放弃
	if m.allocationCap.IsPositive() {
		capAmount := pf.InitialCapital.Mul(m.allocationCap).Div(hundred)
		remaining := capAmount.Sub(pf.InvestedNotional())
		if !remaining.IsPositive() {
			m.logger.Infow("Entry rejected: allocation cap exhausted",
				"symbol", symbol,
				"invested", pf.InvestedNotional().String(),
				"cap", capAmount.String())
			return nil, nil
		}
		if notional.GreaterThan(remaining) {
			notional = remaining
		}
	}

	// 数量向下截断到固定精度，避免超支
	quantity := notional.Div(quote.Price).Truncate(m.qtyPrecision)
	if !quantity.IsPositive() {
		m.logger.Infow("Entry rejected: quantity rounds to zero", "symbol", symbol, "notional", notional.String())
		return nil, nil
	}
	cost := quantity.Mul(quote.Price)

	if cost.LessThan(m.minNotional) {
		m.logger.Infow("Entry rejected: below minimum trade size",
			"symbol", symbol, "notional", cost.String(), "min", m.minNotional.String())
		return nil, nil
	}
	// 现金不变式：cash ≥ 0 必须在每次变更后成立，超支的入场直接拒绝
	if cost.GreaterThan(pf.Cash) {
		m.logger.Warnw("Entry rejected: notional exceeds available cash",
			"symbol", symbol, "notional", cost.String(), "cash", pf.Cash.String())
		return nil, nil
	}

	side := model.DirLong
	orderSide := executor.SideBuy
	if decision.Action == model.ActionShort {
		side = model.DirShort
		orderSide = executor.SideSell
	}

	fill, err := m.gateway.PlaceOrder(ctx, executor.OrderRequest{
		Symbol:   symbol,
		Side:     orderSide,
		Quantity: quantity,
		Price:    quote.Price,
	})
	if err != nil {
		return nil, fmt.Errorf("entry order for %s: %w", symbol, err)
	}

	pf.Cash = pf.Cash.Sub(cost)
	pf.Positions[symbol] = &model.Position{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: fill.Price,
		MarkPrice:  fill.Price,
		OpenedAt:   quote.Timestamp,
	}

	m.logger.Infow("Position opened",
		"symbol", symbol,
		"side", side.String(),
		"quantity", quantity.String(),
		"entry_price", fill.Price.String(),
		"cash", pf.Cash.String())

	return &model.NotificationRequest{
		Kind:   model.NotifyEntry,
		Symbol: symbol,
		Message: fmt.Sprintf("%s %s %s @ %s%s",
			decision.Action, quantity.String(), symbol, fill.Price.StringFixed(4),
			headlineSummary(decision.Headlines)),
	}, nil
}

// headlineSummary 取最多 2 条支撑新闻拼入通知正文
func headlineSummary(headlines []model.Headline) string {
	if len(headlines) == 0 {
		return ""
	}
	limit := 2
	if len(headlines) < limit {
		limit = len(headlines)
	}
	var b strings.Builder
	for _, h := range headlines[:limit] {
		b.WriteString("\n- ")
		b.WriteString(h.Title)
	}
	return b.String()
}

// closingSide 返回平掉给定方向仓位所需的订单方向
func closingSide(side model.Direction) executor.Side {
	if side == model.DirShort {
		return executor.SideBuy
	}
	return executor.SideSell
}
