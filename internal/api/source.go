// Package api 封装外部行情和新闻提供方，并把各家格式翻译成内部数据模型
package api

import (
	"context"
	"errors"
	"time"

	"market-momentum-trader/internal/model"
)

// ErrNoData 表示提供方暂时没有该标的的数据
// 这是可恢复情况：调用方跳过该标的即可，绝不能把缺失当作零价格
var ErrNoData = errors.New("market data not available")

// QuoteSource 提供最新报价
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (model.PricePoint, error)
}

// HistorySource 提供固定周期的历史 K 线，时间升序
type HistorySource interface {
	GetHistory(ctx context.Context, symbol string, granularity time.Duration, points int) (model.CandleSeries, error)
}

// NewsSource 提供最近的新闻标题，最新在前，可能为空
type NewsSource interface {
	GetHeadlines(ctx context.Context, symbol string, limit int) ([]model.Headline, error)
}
