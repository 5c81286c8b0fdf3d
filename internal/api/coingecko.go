package api

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource 通过 CoinGecko 公共 API 提供加密货币的报价和历史数据
// CoinGecko 返回的是价格/成交量的采样点而不是 OHLC，这里按收盘价合成 K 线
type CoinGeckoSource struct {
	client *resty.Client
	logger *zap.SugaredLogger

	// symbol -> coingecko coin id，例如 BTCUSDT -> bitcoin
	coinIDs map[string]string
}

func NewCoinGeckoSource(coinIDs map[string]string, logger *zap.SugaredLogger) *CoinGeckoSource {
	client := resty.New()
	client.SetBaseURL(coinGeckoBaseURL)
	client.SetTimeout(15 * time.Second)
	client.SetHeader("Accept", "application/json")

	return &CoinGeckoSource{
		client:  client,
		logger:  logger,
		coinIDs: coinIDs,
	}
}

func (c *CoinGeckoSource) coinID(symbol string) (string, error) {
	id, ok := c.coinIDs[symbol]
	if !ok || id == "" {
		return "", fmt.Errorf("no coingecko id configured for %s", symbol)
	}
	return id, nil
}

// GetQuote 通过 /simple/price 拉取最新美元价
func (c *CoinGeckoSource) GetQuote(ctx context.Context, symbol string) (model.PricePoint, error) {
	id, err := c.coinID(symbol)
	if err != nil {
		return model.PricePoint{}, err
	}

	var result map[string]map[string]float64
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           id,
			"vs_currencies": "usd",
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("coingecko quote for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return model.PricePoint{}, fmt.Errorf("coingecko quote for %s: status %s", symbol, resp.Status())
	}

	price, ok := result[id]["usd"]
	if !ok || price <= 0 {
		return model.PricePoint{}, ErrNoData
	}

	return model.PricePoint{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Price:     decimal.NewFromFloat(price),
	}, nil
}

// marketChart 对应 /coins/{id}/market_chart 的响应：[ [毫秒时间戳, 数值], ... ]
type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// GetHistory 从 market_chart 合成 K 线序列
// days 在 2-90 区间时 CoinGecko 自动返回小时粒度，正好覆盖 7 天回看窗口
func (c *CoinGeckoSource) GetHistory(ctx context.Context, symbol string, granularity time.Duration, points int) (model.CandleSeries, error) {
	series := model.CandleSeries{
		Symbol:      symbol,
		Granularity: service.FormatInterval(granularity),
	}

	id, err := c.coinID(symbol)
	if err != nil {
		return series, err
	}

	days := int(math.Ceil(float64(points) * granularity.Hours() / 24))
	if days < 2 {
		days = 2
	}

	var chart marketChart
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"days":        fmt.Sprintf("%d", days),
		}).
		SetResult(&chart).
		Get(fmt.Sprintf("/coins/%s/market_chart", id))
	if err != nil {
		return series, fmt.Errorf("coingecko history for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return series, fmt.Errorf("coingecko history for %s: status %s", symbol, resp.Status())
	}

	for i, p := range chart.Prices {
		price := p[1]
		if price <= 0 {
			continue
		}
		volume := 0.0
		if i < len(chart.TotalVolumes) {
			volume = chart.TotalVolumes[i][1]
		}
		// 采样点只有收盘价，OHLC 统一用它填充
		series.Candles = append(series.Candles, model.Candle{
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
			Timestamp: time.UnixMilli(int64(p[0])).UTC(),
		})
	}

	if len(series.Candles) > points {
		series.Candles = series.Candles[len(series.Candles)-points:]
	}
	return series, nil
}
