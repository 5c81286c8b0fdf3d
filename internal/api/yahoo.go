package api

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
)

// YahooSource 通过 Yahoo Finance 提供股票报价和历史 K 线
type YahooSource struct {
	logger *zap.SugaredLogger
}

func NewYahooSource(logger *zap.SugaredLogger) *YahooSource {
	return &YahooSource{logger: logger}
}

// GetQuote 拉取最新市场价
func (y *YahooSource) GetQuote(ctx context.Context, symbol string) (model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return model.PricePoint{}, err
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		// 停牌或未知代码：按数据缺失处理
		return model.PricePoint{}, ErrNoData
	}

	return model.PricePoint{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Price:     decimal.NewFromFloat(q.RegularMarketPrice),
	}, nil
}

// GetHistory 拉取最近 points 根 granularity 周期的 K 线
func (y *YahooSource) GetHistory(ctx context.Context, symbol string, granularity time.Duration, points int) (model.CandleSeries, error) {
	series := model.CandleSeries{
		Symbol:      symbol,
		Granularity: service.FormatInterval(granularity),
	}
	if err := ctx.Err(); err != nil {
		return series, err
	}

	// 预留 2 天缓冲，覆盖休市导致的 K 线缺口
	end := time.Now()
	start := end.Add(-time.Duration(points)*granularity - 48*time.Hour)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: chartInterval(granularity),
	}

	iter := chart.Get(params)
	for iter.Next() {
		bar := iter.Bar()
		closePx, _ := bar.Close.Float64()
		if closePx <= 0 {
			// 个别缺失的 bar 直接丢弃，不允许零价格进入序列
			continue
		}
		openPx, _ := bar.Open.Float64()
		highPx, _ := bar.High.Float64()
		lowPx, _ := bar.Low.Float64()
		series.Candles = append(series.Candles, model.Candle{
			Open:      openPx,
			High:      highPx,
			Low:       lowPx,
			Close:     closePx,
			Volume:    float64(bar.Volume),
			Timestamp: time.Unix(int64(bar.Timestamp), 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return series, fmt.Errorf("yahoo history for %s: %w", symbol, err)
	}

	// 只保留最近 points 根
	if len(series.Candles) > points {
		series.Candles = series.Candles[len(series.Candles)-points:]
	}
	return series, nil
}

// chartInterval 将内部周期映射到 Yahoo 的 interval 参数
func chartInterval(granularity time.Duration) datetime.Interval {
	switch {
	case granularity >= 24*time.Hour:
		return datetime.OneDay
	case granularity >= time.Hour:
		return datetime.OneHour
	case granularity >= 15*time.Minute:
		return datetime.FifteenMins
	default:
		return datetime.FiveMins
	}
}
