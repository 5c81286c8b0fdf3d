// Package scanner 驱动评估循环：按固定顺序逐标的执行
// 报价 -> 历史 -> 新闻 -> 信号 -> 组合状态机，周期末把组合写回存储
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/api"
	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/notify"
	"market-momentum-trader/internal/portfolio"
	"market-momentum-trader/internal/store"
	"market-momentum-trader/internal/strategy"
)

// StateStore 是组合持久化的边界，load/save 必须精确往返
type StateStore interface {
	Load() (*model.Portfolio, error)
	Save(*model.Portfolio) error
}

// Instrument 绑定一个标的和它的数据提供方
type Instrument struct {
	Symbol  string
	Quotes  api.QuoteSource
	History api.HistorySource
	News    api.NewsSource
}

// Scanner 串联信号引擎和组合管理器
// 整个周期内只有一个 Goroutine 触碰 Portfolio，不需要额外加锁
type Scanner struct {
	instruments    []Instrument // 遍历顺序固定，保证周期行为确定
	engine         *strategy.Engine
	manager        *portfolio.Manager
	store          StateStore
	notifier       notify.Notifier
	logger         *zap.SugaredLogger
	initialCapital decimal.Decimal
	granularity    time.Duration
	historyPoints  int
	headlineLimit  int
}

func New(
	instruments []Instrument,
	engine *strategy.Engine,
	manager *portfolio.Manager,
	store StateStore,
	notifier notify.Notifier,
	initialCapital decimal.Decimal,
	granularity time.Duration,
	historyPoints int,
	headlineLimit int,
	logger *zap.SugaredLogger,
) *Scanner {
	return &Scanner{
		instruments:    instruments,
		engine:         engine,
		manager:        manager,
		store:          store,
		notifier:       notifier,
		logger:         logger,
		initialCapital: initialCapital,
		granularity:    granularity,
		historyPoints:  historyPoints,
		headlineLimit:  headlineLimit,
	}
}

// Run 周期性执行 RunCycle，直到 ctx 取消
// 单个周期的失败只记日志，不终止进程
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Errorw("Scan cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunCycle 执行一次完整的评估周期
// 中途取消时，已处理标的的状态变更会被写回，保证持久化状态不缺账
func (s *Scanner) RunCycle(ctx context.Context) error {
	pf, err := s.loadPortfolio()
	if err != nil {
		return err
	}

	// 日界切换：重置熔断锚点 (外层调度决定交易日边界)
	now := time.Now().UTC()
	if pf.DayStart.IsZero() || !sameDay(now, pf.DayStart.UTC()) {
		pf.StartNewDay(now)
		s.logger.Infow("New trading day",
			"day_start_equity", pf.DayStartEquity.String())
	}

	for _, inst := range s.instruments {
		if ctx.Err() != nil {
			break
		}
		s.evaluateInstrument(ctx, inst, pf)
	}

	if err := s.store.Save(pf); err != nil {
		return err
	}
	s.logger.Infow("Cycle complete",
		"cash", pf.Cash.String(),
		"equity", pf.Equity().String(),
		"open_positions", len(pf.Positions),
		"paused", pf.TradingPaused)
	return nil
}

// evaluateInstrument 评估单个标的
// 任何一个标的抛出的 panic 都被隔离，周期继续处理下一个标的
func (s *Scanner) evaluateInstrument(ctx context.Context, inst Instrument, pf *model.Portfolio) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("Recovered from panic during evaluation",
				"symbol", inst.Symbol, "panic", r)
		}
	}()

	// 报价缺失：跳过该标的，本周期不做任何状态变更，也绝不当作零价格
	quote, err := inst.Quotes.GetQuote(ctx, inst.Symbol)
	if err != nil {
		if errors.Is(err, api.ErrNoData) {
			s.logger.Debugw("No quote, skipping symbol", "symbol", inst.Symbol)
		} else {
			s.logger.Warnw("Quote fetch failed, skipping symbol", "symbol", inst.Symbol, "error", err)
		}
		return
	}

	// 历史或新闻缺失不跳过：信号引擎自己会降级为 HOLD，
	// 而已有仓位仍需要依据报价检查退出条件
	series, err := inst.History.GetHistory(ctx, inst.Symbol, s.granularity, s.historyPoints)
	if err != nil {
		s.logger.Warnw("History fetch failed", "symbol", inst.Symbol, "error", err)
		series = model.CandleSeries{Symbol: inst.Symbol}
	}

	var headlines []model.Headline
	if inst.News != nil {
		headlines, err = inst.News.GetHeadlines(ctx, inst.Symbol, s.headlineLimit)
		if err != nil {
			s.logger.Warnw("Headline fetch failed", "symbol", inst.Symbol, "error", err)
			headlines = nil
		}
	}

	decision := s.engine.Decide(series, headlines)
	s.logger.Debugw("Decision", "symbol", inst.Symbol, "action", string(decision.Action), "reason", decision.Reason)

	notes, err := s.manager.Evaluate(ctx, inst.Symbol, quote, decision, pf)
	if err != nil {
		// 下单失败：组合未被变更，记录后继续下一个标的
		s.logger.Errorw("Evaluation failed", "symbol", inst.Symbol, "error", err)
	}
	for _, note := range notes {
		if err := s.notifier.Notify(ctx, note.Message); err != nil {
			s.logger.Warnw("Notification delivery failed", "kind", string(note.Kind), "error", err)
		}
	}
}

// loadPortfolio 读取持久化状态，首次启动时按初始资金建立空组合
func (s *Scanner) loadPortfolio() (*model.Portfolio, error) {
	pf, err := s.store.Load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Infow("No saved state, starting fresh portfolio",
				"initial_capital", s.initialCapital.String())
			return model.NewPortfolio(s.initialCapital), nil
		}
		return nil, err
	}
	return pf, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
