package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
	"market-momentum-trader/pkg/ta"
)

// Engine 在一个评估周期内将 K 线序列和新闻标题转化为 BUY/SHORT/HOLD 决策
// 完全确定性：相同输入永远得到相同输出，不携带任何周期间状态
type Engine struct {
	cfg      *service.StrategyConfig
	keywords *KeywordFilter
	logger   *zap.SugaredLogger

	// 三个观察窗口对应的 K 线数量，由 K 线周期推导：
	// 短期 = 1 个周期；中期 ≈ 3 天；长期 ≈ 7 天 (同时是最小历史长度)
	shortWindow  int
	mediumWindow int
	longWindow   int
}

// NewEngine 初始化信号引擎
// granularity 是历史 K 线的周期 (例如 1h)，不能大于 24h
func NewEngine(cfg *service.StrategyConfig, granularity time.Duration, logger *zap.SugaredLogger) *Engine {
	perDay := 1
	if granularity > 0 && granularity <= 24*time.Hour {
		perDay = int((24 * time.Hour) / granularity)
	}
	return &Engine{
		cfg:          cfg,
		keywords:     NewKeywordFilter(cfg.AdverseKeywords, cfg.FavorableKeywords),
		logger:       logger,
		shortWindow:  2, // 最新收盘价 vs 上一个周期
		mediumWindow: 3 * perDay,
		longWindow:   7 * perDay,
	}
}

// MinWindow 返回决策所需的最小 K 线数量 (小时线默认 168)
func (e *Engine) MinWindow() int {
	min := e.longWindow
	if need := 2 * e.cfg.VolumeWindow; need > min {
		min = need
	}
	if e.cfg.VolatilityWindow > min {
		min = e.cfg.VolatilityWindow
	}
	return min
}

// Decide 是信号引擎的唯一入口
// 数据不足是高频出现的正常情况，统一降级为 HOLD 并在 Reason 中说明，不作为错误返回
func (e *Engine) Decide(series model.CandleSeries, headlines []model.Headline) model.Decision {
	closes := series.Closes()

	// ------------------------------------------------------------------
	// 1. 多周期动量：短期 / 中期 / 长期涨跌幅
	//    任何一个参照收盘价缺失或接近零都视为历史不足
	// ------------------------------------------------------------------
	if len(closes) < e.MinWindow() {
		return hold(fmt.Sprintf("insufficient history: %d of %d candles", len(closes), e.MinWindow()))
	}

	shortPct, ok := ta.PercentChange(closes, e.shortWindow)
	if !ok {
		return hold("insufficient history for short-term change")
	}
	mediumPct, ok := ta.PercentChange(closes, e.mediumWindow)
	if !ok {
		return hold("insufficient history for medium-term change")
	}
	longPct, ok := ta.PercentChange(closes, e.longWindow)
	if !ok {
		return hold("insufficient history for long-term change")
	}

	// ------------------------------------------------------------------
	// 2. 成交量确认：近 N 根成交量必须严格大于前 N 根
	// ------------------------------------------------------------------
	volUp, ok := ta.VolumeTrendUp(series.Volumes(), e.cfg.VolumeWindow)
	if !ok {
		return hold("insufficient volume history")
	}
	if !volUp {
		return hold("volume trend not confirmed")
	}

	// ------------------------------------------------------------------
	// 3. 波动率过滤：归一化样本标准差超过上限则放弃，无论方向
	// ------------------------------------------------------------------
	volatility, ok := ta.RelativeVolatility(closes, e.cfg.VolatilityWindow)
	if !ok {
		return hold("insufficient history for volatility")
	}
	if volatility > e.cfg.VolatilityCeiling {
		return hold(fmt.Sprintf("volatility %.4f above ceiling %.4f", volatility, e.cfg.VolatilityCeiling))
	}

	// ------------------------------------------------------------------
	// 4. 新闻过滤：负面关键词无条件否决；
	//    严格模式下缺少正面确认 (包括空新闻) 同样否决
	// ------------------------------------------------------------------
	if kw, matched := e.keywords.MatchAdverse(headlines); matched {
		return hold(fmt.Sprintf("adverse headline keyword: %q", kw))
	}
	if e.cfg.RequireFavorableHeadline && !e.keywords.MatchFavorable(headlines) {
		if len(headlines) == 0 {
			return hold("no headlines available for confirmation")
		}
		return hold("no favorable headline confirmation")
	}

	// ------------------------------------------------------------------
	// 5. 方向判定：三个窗口必须同向且都达到阈值，临界值算达标 (≥/≤)
	// ------------------------------------------------------------------
	if shortPct >= e.cfg.ShortTermPct && mediumPct >= e.cfg.MediumTermPct && longPct >= e.cfg.LongTermPct {
		e.logger.Infow("BUY signal",
			"symbol", series.Symbol,
			"short_pct", shortPct, "medium_pct", mediumPct, "long_pct", longPct,
			"volatility", volatility)
		return model.Decision{
			Action:    model.ActionBuy,
			Headlines: headlines,
			Reason:    fmt.Sprintf("momentum up %.2f%%/%.2f%%/%.2f%%", shortPct, mediumPct, longPct),
		}
	}
	if shortPct <= -e.cfg.ShortTermPct && mediumPct <= -e.cfg.MediumTermPct && longPct <= -e.cfg.LongTermPct {
		e.logger.Infow("SHORT signal",
			"symbol", series.Symbol,
			"short_pct", shortPct, "medium_pct", mediumPct, "long_pct", longPct,
			"volatility", volatility)
		return model.Decision{
			Action:    model.ActionShort,
			Headlines: headlines,
			Reason:    fmt.Sprintf("momentum down %.2f%%/%.2f%%/%.2f%%", shortPct, mediumPct, longPct),
		}
	}

	return hold(fmt.Sprintf("no aligned momentum (%.2f%%/%.2f%%/%.2f%%)", shortPct, mediumPct, longPct))
}

func hold(reason string) model.Decision {
	return model.Decision{Action: model.ActionHold, Reason: reason}
}
