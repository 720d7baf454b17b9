package collector

import (
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/cwj/useful_push/internal/config"
	"github.com/cwj/useful_push/internal/retry"
)

const (
	// UserAgent 所有出站 HTTP 请求共用的 UA
	UserAgent = "useful_push/1.0 (+https://github.com/cwj/useful_push)"

	httpTimeout      = 15 * time.Second
	maxFeedBodyBytes = 4 << 20 // 4MB，防御异常大的 feed
)

// feedRetry 与外部翻译调用共用同一套退避抽象，只是参数更保守
var feedRetry = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxJitter:   500 * time.Millisecond,
}

// FeedFetcher 拉取并解析 RSS/Atom 源
type FeedFetcher struct {
	client *http.Client
	parser *gofeed.Parser
	now    func() time.Time
}

func NewFeedFetcher() *FeedFetcher {
	return &FeedFetcher{
		client: &http.Client{Timeout: httpTimeout},
		parser: gofeed.NewParser(),
		now:    config.Now,
	}
}

// FetchEntries 依次抓取 sources 中的每个源，返回时间窗口内的归一化条目。
// 单个源抓取或解析失败只记日志并跳过，绝不影响其它源。
func (f *FeedFetcher) FetchEntries(sources []config.NewsSource, lookbackHours int) []NewsEntry {
	cutoff := f.now().Add(-time.Duration(lookbackHours) * time.Hour)

	var entries []NewsEntry
	for _, src := range sources {
		feed, err := f.fetchOne(src.URL)
		if err != nil {
			log.Printf("warn: read feed %s: %v", src.URL, err)
			continue
		}
		for _, item := range feed.Items {
			published := itemTime(item)
			if published != nil && published.Before(cutoff) {
				continue
			}
			entries = append(entries, NewsEntry{
				Title:       TrimWhitespace(item.Title),
				Link:        item.Link,
				PublishedAt: published,
				Source:      src.Label,
				Description: StripHTML(pickDescription(item)),
			})
		}
	}
	return entries
}

func (f *FeedFetcher) fetchOne(feedURL string) (*gofeed.Feed, error) {
	var feed *gofeed.Feed
	err := feedRetry.Do(func(attempt int) (bool, error) {
		req, err := http.NewRequest(http.MethodGet, feedURL, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		if retryableStatus(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			return true, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return false, fmt.Errorf("status %d", resp.StatusCode)
		}

		parsed, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedBodyBytes))
		if err != nil {
			// XML 损坏重试也无济于事
			return false, fmt.Errorf("parse: %w", err)
		}
		feed = parsed
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// itemTime 取条目发布时间并换算到东八区；published 缺失时退回 updated，
// 两者都解析不出来返回 nil（条目保留，视作最近）
func itemTime(item *gofeed.Item) *time.Time {
	parsed := item.PublishedParsed
	if parsed == nil {
		parsed = item.UpdatedParsed
	}
	if parsed == nil {
		return nil
	}
	t := parsed.In(config.Location)
	return &t
}

func pickDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// TrimWhitespace 折叠所有连续空白为单个空格并去掉首尾空白
func TrimWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// StripHTML 去掉 HTML 标签与实体，返回折叠空白后的纯文本。
// 不是合法 HTML 的输入会被 goquery 宽容处理，原文本原样保留。
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return TrimWhitespace(html.UnescapeString(s))
	}
	return TrimWhitespace(html.UnescapeString(doc.Text()))
}
