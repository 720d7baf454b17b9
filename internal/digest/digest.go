// Package digest 串起整条流水线：采集 → 去重排序 → 翻译摘要 → 渲染 → 推送。
package digest

import (
	"context"
	"log"
	"strings"

	"github.com/cwj/useful_push/internal/collector"
	"github.com/cwj/useful_push/internal/config"
	"github.com/cwj/useful_push/internal/enrich"
	"github.com/cwj/useful_push/internal/render"
)

// Payload 一条待推送的消息
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender 推送通道的最小接口
type Sender interface {
	Send(title, body string) error
}

// Builder 负责组装一轮完整的推送内容
type Builder struct {
	cfg       *config.Config
	sources   map[string][]config.NewsSource
	fetcher   *collector.FeedFetcher
	enricher  *enrich.Enricher
	locations []collector.WeatherLocation
	cache     collector.WeatherCache
}

func NewBuilder(cfg *config.Config, sources map[string][]config.NewsSource) *Builder {
	client := enrich.NewClient(cfg.OpenRouterKey, cfg.OpenRouterModel)
	return &Builder{
		cfg:       cfg,
		sources:   sources,
		fetcher:   collector.NewFeedFetcher(),
		enricher:  enrich.NewEnricher(client, cfg.OpenRouterForce, cfg.MaxPromptChars),
		locations: collector.DefaultWeatherLocations,
	}
}

// WithWeather 覆盖关注城市并挂上缓存（daemon 模式用，cache 允许为 nil）
func (b *Builder) WithWeather(locations []collector.WeatherLocation, cache collector.WeatherCache) *Builder {
	if len(locations) > 0 {
		b.locations = locations
	}
	b.cache = cache
	return b
}

// BuildPayloads 构建本轮全部推送：每个新闻类别一条，之后是天气、
// 系统状态和今日日程。任何板块失败都不会中断其余板块。
func (b *Builder) BuildPayloads(ctx context.Context) []Payload {
	var payloads []Payload

	for _, meta := range config.CategoryOrder {
		sources := b.sources[meta.Category]
		if len(sources) == 0 {
			log.Printf("新闻类别 %s 暂无配置，跳过", meta.Category)
			continue
		}
		log.Printf("[STEP] 抓取 %s（来源 %d 条）", meta.SectionTitle, len(sources))

		maxItems := meta.MaxItems
		if maxItems <= 0 {
			maxItems = b.cfg.MaxNewsItems
		}
		entries := b.fetcher.FetchEntries(sources, b.cfg.LookbackHours)
		ranked := collector.DedupeAndRank(entries, maxItems)
		enriched := b.enricher.EnrichEntries(ctx, ranked, meta.TopicLabel)

		payloads = append(payloads, Payload{
			Title: meta.PushTitle,
			Body:  render.NewsSection(meta.SectionTitle, enriched),
		})
	}

	log.Println("[STEP] 获取天气数据")
	forecasts := collector.FetchWeather(nil, b.locations, b.cache)
	payloads = append(payloads, Payload{Title: "天气速递", Body: render.WeatherSection(forecasts)})

	log.Println("[STEP] 收集服务器健康状况")
	payloads = append(payloads, Payload{Title: "系统状态", Body: render.HealthSection(collector.GatherServerHealth())})

	log.Println("[STEP] 读取 Google Calendar")
	events := collector.FetchCalendarEvents(ctx, b.cfg.GoogleServiceAccountJSON, b.cfg.GoogleCalendarID)
	payloads = append(payloads, Payload{Title: "今日行程", Body: render.CalendarSection(events)})

	return payloads
}

// SendAll 逐条发送，空内容跳过；单条失败记日志后继续发剩余的
func SendAll(sender Sender, payloads []Payload) {
	for idx, payload := range payloads {
		if strings.TrimSpace(payload.Body) == "" {
			log.Printf("推送 %s 内容为空，跳过", payload.Title)
			continue
		}
		log.Printf("[STEP] 推送进度 %d/%d：发送 %s", idx+1, len(payloads), payload.Title)
		if err := sender.Send(payload.Title, payload.Body); err != nil {
			log.Printf("推送 %s 失败：%v", payload.Title, err)
		}
	}
}
