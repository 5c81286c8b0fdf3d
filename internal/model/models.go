package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint 代表一个标的在某一时刻的报价快照
type PricePoint struct {
	Symbol    string
	Timestamp time.Time
	Price     decimal.Decimal
}

// Candle 代表一根已完成的 K 线
// 指标计算依赖 talib，这里保留 float64 表示；资金相关的运算统一走 decimal
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// CandleSeries 是单个标的、固定周期的 K 线序列，插入顺序即时间顺序
type CandleSeries struct {
	Symbol      string
	Granularity string // 周期字符串，例如 "1h"
	Candles     []Candle
}

func (s CandleSeries) Len() int {
	return len(s.Candles)
}

// Closes 返回收盘价序列 (时间升序)
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Volumes 返回成交量序列 (时间升序)
func (s CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// LatestClose 返回最新一根 K 线的收盘价，序列为空时 ok=false
func (s CandleSeries) LatestClose() (float64, bool) {
	if len(s.Candles) == 0 {
		return 0, false
	}
	return s.Candles[len(s.Candles)-1].Close, true
}

// Headline 是一条新闻标题，按新鲜度降序排列 (最新在前)
type Headline struct {
	Title string
}
