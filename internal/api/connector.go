package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
	"market-momentum-trader/internal/service"
)

// OkxWsData 适用于 Okx V5 的通用响应结构
type OkxWsData struct {
	Arg struct {
		Channel string `json:"channel"`
		InstId  string `json:"instId"`
	} `json:"arg"`
	Data  json.RawMessage `json:"data"` // 延迟解析
	Event string          `json:"event"`
}

// OkxTickerData 结构体，用于解析 tickers 频道数据
type OkxTickerData struct {
	LastPrice string `json:"last"` // 最新成交价 (tickers 频道使用 'last')
	Timestamp string `json:"ts"`
	InstId    string `json:"instId"`
}

// 映射 InstId 到 Symbol (例如 BTC-USDT-SWAP -> BTCUSDT)
type InstMap map[string]string

// StreamConnector 订阅 Okx 行情流并维护一份最新价缓存
// 实现 QuoteSource：GetQuote 直接命中缓存，缺失或过期的价格返回 ErrNoData
type StreamConnector struct {
	wsURL        string
	instToSymbol InstMap
	maxAge       time.Duration // 缓存过期时间，超过视为数据缺失
	logger       *zap.SugaredLogger

	mu         sync.RWMutex
	lastPrices map[string]model.PricePoint
}

// NewStreamConnector 初始化连接器
func NewStreamConnector(wsURL string, symbols []string, maxAge time.Duration, logger *zap.SugaredLogger) *StreamConnector {
	// 构造 instId: 例如 BTCUSDT -> BTC-USDT-SWAP
	instToSymbol := make(InstMap, len(symbols))
	for _, symbol := range symbols {
		if len(symbol) <= 4 {
			continue
		}
		instID := symbol[:len(symbol)-4] + "-" + symbol[len(symbol)-4:] + "-SWAP"
		instToSymbol[instID] = symbol
	}

	logger.Infow("Stream connector initialized", "symbols", symbols)

	return &StreamConnector{
		wsURL:        wsURL,
		instToSymbol: instToSymbol,
		maxAge:       maxAge,
		logger:       logger,
		lastPrices:   make(map[string]model.PricePoint),
	}
}

// Start 建立 WebSocket 连接并持续更新缓存，断线后自动重连
// 在独立的 Goroutine 中运行，ctx 取消后退出
func (c *StreamConnector) Start(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.connectAndRead(ctx); err != nil {
			c.logger.Warnw("Stream connection lost, reconnecting...", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *StreamConnector) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.wsURL, err)
	}
	defer conn.Close()

	var args []map[string]string
	for instID := range c.instToSymbol {
		args = append(args, map[string]string{"channel": "tickers", "instId": instID})
	}
	subscribeMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	}
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.logger.Info("Subscribed to tickers stream")

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handleMessage(message)
	}
}

func (c *StreamConnector) handleMessage(message []byte) {
	var wsResp OkxWsData
	if err := json.Unmarshal(message, &wsResp); err != nil {
		return
	}
	if wsResp.Event != "" {
		return // 忽略订阅确认等事件
	}
	if wsResp.Arg.Channel != "tickers" || len(wsResp.Data) == 0 {
		return
	}
	symbol, ok := c.instToSymbol[wsResp.Arg.InstId]
	if !ok {
		return
	}

	var tickers []OkxTickerData
	if err := json.Unmarshal(wsResp.Data, &tickers); err != nil || len(tickers) == 0 {
		return
	}

	last := tickers[len(tickers)-1]
	price, err := decimal.NewFromString(last.LastPrice)
	if err != nil || !price.IsPositive() {
		return
	}
	tsMillis, err := service.StringToInt64(last.Timestamp)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.lastPrices[symbol] = model.PricePoint{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(tsMillis).UTC(),
		Price:     price,
	}
	c.mu.Unlock()
}

// GetQuote 从缓存返回最新价，实现 QuoteSource 接口
func (c *StreamConnector) GetQuote(ctx context.Context, symbol string) (model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return model.PricePoint{}, err
	}

	c.mu.RLock()
	point, ok := c.lastPrices[symbol]
	c.mu.RUnlock()

	if !ok {
		return model.PricePoint{}, ErrNoData
	}
	if c.maxAge > 0 && time.Since(point.Timestamp) > c.maxAge {
		// 过期报价等同于没有报价
		return model.PricePoint{}, ErrNoData
	}
	return point, nil
}
