package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-momentum-trader/internal/api"
	"market-momentum-trader/internal/executor"
	"market-momentum-trader/internal/notify"
	"market-momentum-trader/internal/portfolio"
	"market-momentum-trader/internal/scanner"
	"market-momentum-trader/internal/service"
	"market-momentum-trader/internal/store"
	"market-momentum-trader/internal/strategy"
)

func main() {
	service.InitLogger()
	defer service.Logger.Sync()

	// .env 只携带凭据 (Telegram)，其余配置都在 config/config.yaml
	_ = godotenv.Load()

	configPath := "config"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory 'config/' not found. Please create it.")
	}
	cfg := service.LoadConfig(configPath)

	logger := service.Logger.Sugar()

	scanInterval, err := service.ParseIntervalDuration(cfg.Scan.Interval)
	if err != nil {
		service.Logger.Fatal("Invalid scan interval", zap.Error(err))
	}
	granularity, err := service.ParseIntervalDuration(cfg.Scan.Granularity)
	if err != nil {
		service.Logger.Fatal("Invalid granularity", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 通知通道：有 Telegram 凭据走 Telegram，否则降级到日志
	notifier := buildNotifier(logger)

	// 2. 数据提供方：股票走 Yahoo，加密货币走 CoinGecko 或 WebSocket 行情缓存
	instruments := buildInstruments(ctx, cfg, logger)
	if len(instruments) == 0 {
		service.Logger.Fatal("No symbols configured")
	}

	// 3. 核心组件：信号引擎 + 组合管理器 (模拟盘执行)
	engine := strategy.NewEngine(&cfg.Strategy, granularity, logger)
	gateway := executor.NewSimulatorGateway(logger)
	manager := portfolio.NewManager(&cfg.Portfolio, gateway, logger)
	stateStore := store.NewFileStore(cfg.Scan.StatePath)

	sc := scanner.New(
		instruments,
		engine,
		manager,
		stateStore,
		notifier,
		decimal.NewFromFloat(cfg.Portfolio.InitialCapital),
		granularity,
		cfg.Scan.HistoryPoints,
		cfg.Scan.HeadlineLimit,
		logger,
	)

	if err := notifier.Notify(ctx, "Bot started"); err != nil {
		logger.Warnw("Startup notification failed", "error", err)
	}
	logger.Infow("Starting scan loop",
		"symbols", len(instruments),
		"interval", cfg.Scan.Interval,
		"granularity", cfg.Scan.Granularity)

	sc.Run(ctx, scanInterval)

	logger.Info("Shutdown complete")
}

// buildNotifier 根据环境变量选择通知通道
func buildNotifier(logger *zap.SugaredLogger) notify.Notifier {
	tgCfg, err := notify.LoadTelegramConfig()
	if err != nil {
		logger.Warnw("Telegram config invalid, falling back to log notifier", "error", err)
		return notify.NewLogNotifier(logger)
	}
	if !tgCfg.Enabled() {
		logger.Info("Telegram credentials not set, notifications go to log")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewTelegramNotifier(tgCfg, logger)
}

// buildInstruments 为每个配置的标的绑定数据提供方
func buildInstruments(ctx context.Context, cfg *service.Config, logger *zap.SugaredLogger) []scanner.Instrument {
	yahoo := api.NewYahooSource(logger)
	news := api.NewRSSNewsSource(logger)

	coinIDs := make(map[string]string)
	var cryptoSymbols []string
	for _, sym := range cfg.Symbols {
		if sym.Kind == "crypto" {
			coinIDs[sym.Symbol] = sym.CoinGeckoID
			cryptoSymbols = append(cryptoSymbols, sym.Symbol)
		}
	}
	gecko := api.NewCoinGeckoSource(coinIDs, logger)

	// 可选：加密货币报价改走交易所行情流 (历史仍由 CoinGecko 提供)
	var cryptoQuotes api.QuoteSource = gecko
	if cfg.Exchange.UseStream && cfg.Exchange.WSURL != "" && len(cryptoSymbols) > 0 {
		stream := api.NewStreamConnector(cfg.Exchange.WSURL, cryptoSymbols, 5*time.Minute, logger)
		go stream.Start(ctx)
		cryptoQuotes = stream
	}

	var instruments []scanner.Instrument
	for _, sym := range cfg.Symbols {
		switch sym.Kind {
		case "equity":
			instruments = append(instruments, scanner.Instrument{
				Symbol:  sym.Symbol,
				Quotes:  yahoo,
				History: yahoo,
				News:    news,
			})
		case "crypto":
			instruments = append(instruments, scanner.Instrument{
				Symbol:  sym.Symbol,
				Quotes:  cryptoQuotes,
				History: gecko,
				News:    news,
			})
		default:
			logger.Warnw("Unknown symbol kind, skipping", "symbol", sym.Symbol, "kind", sym.Kind)
		}
	}

	fmt.Printf("Monitoring %d symbols\n", len(instruments))
	return instruments
}
