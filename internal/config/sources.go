package config

import (
	"encoding/json"
	"log"
	"os"
)

// NewsSource 描述一条新闻源：同一 category 下可以有多个源
type NewsSource struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// CategoryMeta 控制一个新闻类别的推送标题、小节标题与条数上限
type CategoryMeta struct {
	Category     string
	PushTitle    string
	SectionTitle string
	TopicLabel   string
	MaxItems     int
}

// CategoryOrder 按推送顺序列出所有新闻类别
var CategoryOrder = []CategoryMeta{
	{
		Category:     "ai",
		PushTitle:    "AI 新闻速递",
		SectionTitle: "AI 热点（过去 24 小时）",
		TopicLabel:   "AI",
		MaxItems:     20,
	},
	{
		Category:     "robotics",
		PushTitle:    "机器人观察",
		SectionTitle: "机器人行业动态（过去 24 小时）",
		TopicLabel:   "机器人",
		MaxItems:     20,
	},
	{
		Category:     "finance",
		PushTitle:    "财经要闻",
		SectionTitle: "财经 / 宏观经济",
		TopicLabel:   "财经 / 宏观经济",
		MaxItems:     20,
	},
	{
		Category:     "tech",
		PushTitle:    "科技快讯",
		SectionTitle: "全球科技资讯",
		TopicLabel:   "科技",
		MaxItems:     20,
	},
}

// DefaultNewsSources 内置新闻源，在 sources 文件缺失或损坏时兜底
var DefaultNewsSources = []NewsSource{
	{Category: "ai", Label: "Google News - AI 热点", URL: "https://news.google.com/rss/search?q=AI+OR+%E4%BA%BA%E5%B7%A5%E6%99%BA%E8%83%BD+when:1d&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"},
	{Category: "ai", Label: "ars technica | AI", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
	{Category: "ai", Label: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/"},
	{Category: "ai", Label: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
	{Category: "ai", Label: "Google Blog - AI", URL: "https://blog.google/technology/ai/rss/"},
	{Category: "ai", Label: "Microsoft AI Blog", URL: "https://blogs.microsoft.com/ai/feed/"},
	{Category: "robotics", Label: "Google News - 机器人", URL: "https://news.google.com/rss/search?q=%E6%9C%BA%E5%99%A8%E4%BA%BA+OR+robotics+when:1d&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"},
	{Category: "robotics", Label: "The Robot Report", URL: "https://www.therobotreport.com/feed/"},
	{Category: "robotics", Label: "IEEE Spectrum", URL: "https://spectrum.ieee.org/feed"},
	{Category: "robotics", Label: "Robotics Business Review", URL: "https://www.roboticsbusinessreview.com/feed/"},
	{Category: "robotics", Label: "Robohub", URL: "https://robohub.org/feed/"},
	{Category: "robotics", Label: "ScienceDaily - Robotics", URL: "https://rss.sciencedaily.com/computers_math/robotics.xml"},
	{Category: "finance", Label: "Google News - 中国财经", URL: "https://news.google.com/rss/search?q=%E4%B8%AD%E5%9B%BD+%E8%B4%A2%E7%BB%8F+when:1d&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"},
	{Category: "finance", Label: "MarketWatch - Top Stories", URL: "https://www.marketwatch.com/rss/topstories"},
	{Category: "finance", Label: "BBC Business", URL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
	{Category: "finance", Label: "The Economist - Finance & Economics", URL: "https://www.economist.com/finance-and-economics/rss.xml"},
	{Category: "finance", Label: "Financial Times - World Economy", URL: "https://www.ft.com/world-economy?format=rss"},
	{Category: "finance", Label: "Wall Street Journal - Markets", URL: "https://feeds.a.dj.com/rss/RSSMarketsMain.xml"},
	{Category: "finance", Label: "SCMP - Economy", URL: "https://www.scmp.com/rss/91/feed"},
	{Category: "tech", Label: "Google News - 科技", URL: "https://news.google.com/rss/search?q=%E7%A7%91%E6%8A%80+when:1d&hl=zh-CN&gl=CN&ceid=CN:zh-Hans"},
	{Category: "tech", Label: "TechCrunch", URL: "https://techcrunch.com/feed/"},
	{Category: "tech", Label: "The Verge", URL: "https://www.theverge.com/rss/index.xml"},
	{Category: "tech", Label: "WIRED", URL: "https://www.wired.com/feed/rss"},
	{Category: "tech", Label: "Engadget", URL: "https://www.engadget.com/rss.xml"},
	{Category: "tech", Label: "CNBC Technology", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
}

// LoadSources 读取 sources 文件并按 category 分组；
// 文件缺失或解析失败时退回内置默认列表
func LoadSources(path string) map[string][]NewsSource {
	raw := DefaultNewsSources

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("找不到 %s，使用内置默认新闻源", path)
		} else {
			log.Printf("warn: read %s: %v, 使用内置默认新闻源", path, err)
		}
	} else {
		var fromFile []NewsSource
		if err := json.Unmarshal(data, &fromFile); err != nil {
			log.Printf("解析 %s 失败（%v），使用内置默认新闻源", path, err)
		} else {
			raw = fromFile
		}
	}

	return GroupSources(raw)
}

// GroupSources 按 category 分组，跳过缺少 category 或 url 的记录
func GroupSources(raw []NewsSource) map[string][]NewsSource {
	grouped := make(map[string][]NewsSource)
	for _, src := range raw {
		if src.Category == "" || src.URL == "" {
			continue
		}
		if src.Label == "" {
			src.Label = src.URL
		}
		grouped[src.Category] = append(grouped[src.Category], src)
	}
	return grouped
}
