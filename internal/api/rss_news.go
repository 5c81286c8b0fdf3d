package api

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"market-momentum-trader/internal/model"
)

const yahooNewsFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"

// RSS 响应结构
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// RSSNewsSource 通过 Yahoo Finance 的 RSS feed 拉取单个标的的新闻标题
type RSSNewsSource struct {
	client  *resty.Client
	feedURL string
	logger  *zap.SugaredLogger
}

func NewRSSNewsSource(logger *zap.SugaredLogger) *RSSNewsSource {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) TradingBot/1.0")

	return &RSSNewsSource{
		client:  client,
		feedURL: yahooNewsFeedURL,
		logger:  logger,
	}
}

// GetHeadlines 返回最多 limit 条标题，feed 本身已按时间降序排列
// 没有新闻是正常情况，返回空切片而不是错误
func (r *RSSNewsSource) GetHeadlines(ctx context.Context, symbol string, limit int) ([]model.Headline, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"s":      symbol,
			"region": "US",
			"lang":   "en-US",
		}).
		Get(r.feedURL)
	if err != nil {
		return nil, fmt.Errorf("news feed for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news feed for %s: status %s", symbol, resp.Status())
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("news feed for %s: parse: %w", symbol, err)
	}

	headlines := make([]model.Headline, 0, limit)
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		headlines = append(headlines, model.Headline{Title: title})
		if len(headlines) >= limit {
			break
		}
	}
	return headlines, nil
}
