package collector

import "time"

// NewsEntry 是一条归一化后的新闻：采集层产出前五个字段，
// 翻译/摘要三个字段由 enrich 层填充一次，之后不再修改
type NewsEntry struct {
	Title       string
	Link        string
	// PublishedAt 为 nil 表示源里没有可解析的时间，视作“未知、按最近处理”
	PublishedAt *time.Time
	Source      string
	Description string

	Translation  string
	Summary      string
	KeptOriginal bool
}
