package strategy

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
)

func testConfig() *service.StrategyConfig {
	return &service.StrategyConfig{
		ShortTermPct:      1.0,
		MediumTermPct:     2.0,
		LongTermPct:       3.0,
		VolatilityCeiling: 0.02,
		VolatilityWindow:  24,
		VolumeWindow:      6,
	}
}

func newTestEngine(cfg *service.StrategyConfig) *Engine {
	return NewEngine(cfg, time.Hour, zap.NewNop().Sugar())
}

// makeSeries 构造一条小时线序列：基准价/基准量铺满，再按偏移覆盖
func makeSeries(length int, basePrice, baseVolume float64) model.CandleSeries {
	s := model.CandleSeries{Symbol: "TEST", Granularity: "1h"}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < length; i++ {
		s.Candles = append(s.Candles, model.Candle{
			Open:      basePrice,
			High:      basePrice,
			Low:       basePrice,
			Close:     basePrice,
			Volume:    baseVolume,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		})
	}
	return s
}

// bullishSeries 满足全部过滤器的上涨序列：
// 最新收盘 103 对 100 的三个参照点都是 +3%，近 6 根量放大
func bullishSeries() model.CandleSeries {
	s := makeSeries(168, 100, 10)
	s.Candles[167].Close = 103
	for i := 162; i < 168; i++ {
		s.Candles[i].Volume = 11
	}
	return s
}

func bearishSeries() model.CandleSeries {
	s := makeSeries(168, 100, 10)
	s.Candles[167].Close = 97
	for i := 162; i < 168; i++ {
		s.Candles[i].Volume = 11
	}
	return s
}

func TestDecideBuyOnAlignedMomentum(t *testing.T) {
	e := newTestEngine(testConfig())
	headlines := []model.Headline{{Title: "Quarterly results beat expectations"}}

	d := e.Decide(bullishSeries(), headlines)
	if d.Action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s (%s)", d.Action, d.Reason)
	}
	if len(d.Headlines) != 1 {
		t.Fatalf("BUY decision must carry supporting headlines, got %d", len(d.Headlines))
	}
}

func TestDecideShortOnAlignedDownMomentum(t *testing.T) {
	e := newTestEngine(testConfig())

	d := e.Decide(bearishSeries(), nil)
	if d.Action != model.ActionShort {
		t.Fatalf("expected SHORT, got %s (%s)", d.Action, d.Reason)
	}
}

func TestDecideThresholdTieIsInclusive(t *testing.T) {
	// 103 对 100 的长期涨幅恰好是 3%，临界值必须算达标
	e := newTestEngine(testConfig())
	if d := e.Decide(bullishSeries(), nil); d.Action != model.ActionBuy {
		t.Fatalf("exact threshold must trigger BUY, got %s (%s)", d.Action, d.Reason)
	}

	s := bullishSeries()
	s.Candles[167].Close = 102.9
	if d := e.Decide(s, nil); d.Action != model.ActionHold {
		t.Fatalf("below threshold must HOLD, got %s", d.Action)
	}
}

func TestDecideInsufficientHistoryHolds(t *testing.T) {
	e := newTestEngine(testConfig())

	for _, length := range []int{0, 1, 24, 167} {
		s := makeSeries(length, 100, 10)
		if d := e.Decide(s, nil); d.Action != model.ActionHold {
			t.Fatalf("length %d: expected HOLD, got %s", length, d.Action)
		}
	}
}

func TestDecideZeroHistoricalCloseHolds(t *testing.T) {
	// 历史收盘价为零时禁止除零，按数据不足处理
	e := newTestEngine(testConfig())
	s := bullishSeries()
	s.Candles[0].Close = 0

	if d := e.Decide(s, nil); d.Action != model.ActionHold {
		t.Fatalf("expected HOLD on zero reference close, got %s", d.Action)
	}
}

func TestDecideVolumeNotConfirmedHolds(t *testing.T) {
	e := newTestEngine(testConfig())

	// 量能持平：无论涨跌都必须 HOLD
	up := makeSeries(168, 100, 10)
	up.Candles[167].Close = 103
	if d := e.Decide(up, nil); d.Action != model.ActionHold {
		t.Fatalf("flat volume with uptrend: expected HOLD, got %s", d.Action)
	}

	down := makeSeries(168, 100, 10)
	down.Candles[167].Close = 97
	if d := e.Decide(down, nil); d.Action != model.ActionHold {
		t.Fatalf("flat volume with downtrend: expected HOLD, got %s", d.Action)
	}
}

func TestDecideVolatilityCeilingHolds(t *testing.T) {
	e := newTestEngine(testConfig())
	s := bullishSeries()
	// 在波动率窗口内放一个尖刺，动量参照点不受影响
	s.Candles[158].Close = 150

	d := e.Decide(s, nil)
	if d.Action != model.ActionHold {
		t.Fatalf("expected HOLD on excessive volatility, got %s", d.Action)
	}
}

func TestDecideAdverseHeadlineVetoes(t *testing.T) {
	e := newTestEngine(testConfig())
	headlines := []model.Headline{
		{Title: "Shares climb ahead of earnings"},
		{Title: "Regulator opens INVESTIGATION into accounting"},
	}

	if d := e.Decide(bullishSeries(), headlines); d.Action != model.ActionHold {
		t.Fatalf("adverse headline must veto BUY, got %s", d.Action)
	}
	if d := e.Decide(bearishSeries(), headlines); d.Action != model.ActionHold {
		t.Fatalf("adverse headline must veto SHORT, got %s", d.Action)
	}
}

func TestDecideRequireFavorableHeadline(t *testing.T) {
	cfg := testConfig()
	cfg.RequireFavorableHeadline = true
	e := newTestEngine(cfg)

	neutral := []model.Headline{{Title: "Company schedules annual meeting"}}
	if d := e.Decide(bullishSeries(), neutral); d.Action != model.ActionHold {
		t.Fatalf("strict mode without favorable headline must HOLD, got %s", d.Action)
	}

	favorable := []model.Headline{{Title: "Stock surges after partnership announcement"}}
	if d := e.Decide(bullishSeries(), favorable); d.Action != model.ActionBuy {
		t.Fatalf("strict mode with favorable headline must BUY, got %s (%s)", d.Action, d.Reason)
	}

	// 空新闻在严格模式下同样否决
	if d := e.Decide(bullishSeries(), nil); d.Action != model.ActionHold {
		t.Fatalf("strict mode with no headlines must HOLD, got %s", d.Action)
	}
}

func TestDecideEmptyHeadlinesPassInLooseMode(t *testing.T) {
	e := newTestEngine(testConfig())
	if d := e.Decide(bullishSeries(), nil); d.Action != model.ActionBuy {
		t.Fatalf("loose mode with no headlines must still BUY, got %s (%s)", d.Action, d.Reason)
	}
}

func TestKeywordFilterCaseInsensitive(t *testing.T) {
	f := NewKeywordFilter(nil, nil)

	kw, ok := f.MatchAdverse([]model.Headline{{Title: "Exchange HACK drains wallets"}})
	if !ok || kw != "hack" {
		t.Fatalf("expected hack match, got %q ok=%v", kw, ok)
	}
	if !f.MatchFavorable([]model.Headline{{Title: "Analysts turn BULLISH on sector"}}) {
		t.Fatal("expected favorable match")
	}
	if _, ok := f.MatchAdverse(nil); ok {
		t.Fatal("empty headline set must not match")
	}
}
