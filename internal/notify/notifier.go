// Package notify 负责把状态变更推送给人。发送是尽力而为的：
// 失败只记日志，绝不影响交易流程
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Notifier 是出站通知的通用接口
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// TelegramConfig 从环境变量读取凭据 (配合 .env 文件)
type TelegramConfig struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID string `envconfig:"TELEGRAM_CHAT_ID"`
}

// LoadTelegramConfig 解析环境变量，缺失字段保持为空
func LoadTelegramConfig() (*TelegramConfig, error) {
	var cfg TelegramConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("telegram config: %w", err)
	}
	return &cfg, nil
}

// Enabled 凭据齐全时才启用 Telegram 通道
func (c *TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != ""
}

// TelegramNotifier 通过 Bot API 的 sendMessage 推送消息
type TelegramNotifier struct {
	client *resty.Client
	cfg    *TelegramConfig
	logger *zap.SugaredLogger
}

func NewTelegramNotifier(cfg *TelegramConfig, logger *zap.SugaredLogger) *TelegramNotifier {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &TelegramNotifier{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.cfg.Token)
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": t.cfg.ChatID,
			"text":    message,
		}).
		Post(url)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram send: status %s", resp.Status())
	}
	return nil
}

// LogNotifier 在没有配置 Telegram 凭据时把通知写进日志
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, message string) error {
	l.logger.Infow("NOTIFICATION", "message", message)
	return nil
}
