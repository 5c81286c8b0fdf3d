// internal/service/config.go
package service

import (
	"log"

	"github.com/spf13/viper"
)

// Config 是整个交易程序的顶层配置
type Config struct {
	Scan      ScanConfig      `mapstructure:"Scan"`
	Exchange  ExchangeConfig  `mapstructure:"Exchange"`
	Strategy  StrategyConfig  `mapstructure:"Strategy"`
	Portfolio PortfolioConfig `mapstructure:"Portfolio"`
	Symbols   []SymbolConfig  `mapstructure:"Symbols"`
}

// ScanConfig 定义了评估循环的节奏和数据窗口
type ScanConfig struct {
	Interval      string // 两次扫描之间的休眠时间，例如 "30m"
	Granularity   string // K 线周期，例如 "1h"
	HistoryPoints int    // 每次评估拉取的历史 K 线数量
	HeadlineLimit int    // 每个标的拉取的新闻条数上限
	StatePath     string // 组合状态的持久化文件路径
}

// ExchangeConfig 定义了行情流的连接信息 (可选，仅加密货币标的使用)
type ExchangeConfig struct {
	Name      string
	WSURL     string
	UseStream bool // true 时加密货币报价走 WebSocket 行情缓存而非 REST 轮询
}

// SymbolConfig 描述一个被监控的标的
type SymbolConfig struct {
	Symbol      string
	Kind        string // "equity" 或 "crypto"
	CoinGeckoID string // 仅 crypto 标的需要，例如 "bitcoin"
}

// StrategyConfig 定义了信号引擎的全部阈值和开关
type StrategyConfig struct {
	ShortTermPct             float64  // 短期 (1 个周期) 涨跌幅门槛，默认 1%
	MediumTermPct            float64  // 中期 (约 3 天) 涨跌幅门槛，默认 2%
	LongTermPct              float64  // 长期 (约 7 天) 涨跌幅门槛，默认 3%
	VolatilityCeiling        float64  // 归一化波动率上限，默认 0.02
	VolatilityWindow         int      // 波动率取样的收盘价数量，默认 24
	VolumeWindow             int      // 成交量趋势比较的窗口，默认 6 (近 6 根 vs 前 6 根)
	RequireFavorableHeadline bool     // true 时缺少正面新闻 (含空新闻) 直接否决信号
	AdverseKeywords          []string // 留空则使用内置默认词表
	FavorableKeywords        []string
}

// PortfolioConfig 定义了资金管理和风控参数
type PortfolioConfig struct {
	InitialCapital     float64 // 初始资金 (USD)
	TradeFraction      float64 // 每次开仓占可用现金的比例，默认 0.5
	MinTradeNotional   float64 // 最小下单名义价值，默认 0.25
	ProfitThresholdPct float64 // 止盈百分比，默认 0.5
	StopLossEnabled    bool    // 是否启用止损
	StopLossPct        float64 // 止损百分比 (负数)，默认 -2
	AllocationCapPct   float64 // 总持仓占初始资金的上限百分比，0 表示不限制
	DailyTargetPct     float64 // 单日盈利目标百分比，达到后当日熔断，默认 3
	QuantityPrecision  int32   // 下单数量的小数位数，默认 6
}

// GlobalConfig 存储加载后的全局配置
var GlobalConfig Config

// LoadConfig 读取并解析配置文件
func LoadConfig(configPath string) *Config {
	// 设置配置文件的名称、类型和路径
	viper.SetConfigName("config") // 文件名是 config
	viper.SetConfigType("yaml")   // 文件类型是 yaml
	viper.AddConfigPath(configPath)

	setDefaults()

	// 查找并读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	// 将配置绑定到结构体
	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	return &GlobalConfig
}

// setDefaults 注册所有可省略项的默认值，保持配置文件精简
func setDefaults() {
	viper.SetDefault("Scan.Interval", "30m")
	viper.SetDefault("Scan.Granularity", "1h")
	viper.SetDefault("Scan.HistoryPoints", 180)
	viper.SetDefault("Scan.HeadlineLimit", 5)
	viper.SetDefault("Scan.StatePath", "data/portfolio.json")

	viper.SetDefault("Strategy.ShortTermPct", 1.0)
	viper.SetDefault("Strategy.MediumTermPct", 2.0)
	viper.SetDefault("Strategy.LongTermPct", 3.0)
	viper.SetDefault("Strategy.VolatilityCeiling", 0.02)
	viper.SetDefault("Strategy.VolatilityWindow", 24)
	viper.SetDefault("Strategy.VolumeWindow", 6)
	viper.SetDefault("Strategy.RequireFavorableHeadline", false)

	viper.SetDefault("Portfolio.InitialCapital", 1000.0)
	viper.SetDefault("Portfolio.TradeFraction", 0.5)
	viper.SetDefault("Portfolio.MinTradeNotional", 0.25)
	viper.SetDefault("Portfolio.ProfitThresholdPct", 0.5)
	viper.SetDefault("Portfolio.StopLossEnabled", false)
	viper.SetDefault("Portfolio.StopLossPct", -2.0)
	viper.SetDefault("Portfolio.AllocationCapPct", 0.0)
	viper.SetDefault("Portfolio.DailyTargetPct", 3.0)
	viper.SetDefault("Portfolio.QuantityPrecision", 6)
}
