// Package render 把各板块数据渲染成推送用的 markdown 文本。
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwj/useful_push/internal/collector"
	"github.com/cwj/useful_push/internal/config"
)

var weekdayCN = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// WeekdayCN 返回中文星期名（周一..周日）
func WeekdayCN(t time.Time) string {
	return weekdayCN[(int(t.Weekday())+6)%7]
}

// NewsSection 渲染一个新闻类别：标题、来源、时间、摘要，
// 译文与原文不同才展示两行，否则只展示原文
func NewsSection(title string, entries []collector.NewsEntry) string {
	lines := []string{"## " + title}
	if len(entries) == 0 {
		lines = append(lines, "暂无最新内容，稍后再来看看。")
		return strings.Join(lines, "\n") + "\n"
	}
	for idx, entry := range entries {
		timeStr := "时间未知"
		if entry.PublishedAt != nil {
			timeStr = entry.PublishedAt.Format("01/02 15:04")
		}
		source := entry.Source
		if source == "" {
			source = "来源未知"
		}
		lines = append(lines, fmt.Sprintf("%d. [%s](%s) · %s · %s", idx+1, entry.Title, entry.Link, source, timeStr))

		summary := entry.Summary
		if summary == "" {
			summary = "暂无"
		}
		lines = append(lines, "   - 摘要："+summary)

		translation := strings.TrimSpace(entry.Translation)
		if translation != "" && translation != strings.TrimSpace(entry.Description) {
			lines = append(lines, "   - 译文："+entry.Translation)
			lines = append(lines, "   - 原文："+textOr(entry.Description, "原文缺失"))
		} else {
			lines = append(lines, "   - 原文："+textOr(entry.Description, textOr(entry.Translation, "原文缺失")))
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// WeatherSection 渲染未来三天预报
func WeatherSection(forecasts []collector.CityForecast) string {
	lines := []string{fmt.Sprintf("## 天气预报（未来三天） | 更新时间 %s", config.Now().Format("01-02 15:04"))}
	if len(forecasts) == 0 {
		lines = append(lines, "天气数据获取失败。")
		return strings.Join(lines, "\n") + "\n"
	}
	for _, forecast := range forecasts {
		lines = append(lines, "### "+forecast.City)
		if len(forecast.Days) == 0 {
			lines = append(lines, "- 暂无数据")
			continue
		}
		for _, day := range forecast.Days {
			dateLabel := fmt.Sprintf("%s（%s）", day.Date.Format("01/02"), WeekdayCN(day.Date))
			lines = append(lines, fmt.Sprintf("- %s · %s", dateLabel, day.Weather))
			lines = append(lines, fmt.Sprintf("  - 气温：%s（体感 %s）",
				formatRange(&day.TempMin, &day.TempMax),
				formatRange(day.ApparentMin, day.ApparentMax)))
			lines = append(lines, fmt.Sprintf("  - 风速：%s · 降水概率 %s · 预计降水 %s",
				formatFloat(day.WindMax, "%.0f km/h", "—"),
				formatFloat(day.PrecipChance, "%.0f%%", "未知"),
				formatFloat(day.PrecipSum, "%.1fmm", "—")))
			lines = append(lines, fmt.Sprintf("  - 日出 %s / 日落 %s",
				formatClock(day.Sunrise), formatClock(day.Sunset)))
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// HealthSection 渲染主机状态
func HealthSection(h collector.ServerHealth) string {
	return strings.Join([]string{
		fmt.Sprintf("## 系统状态（%s）", config.Now().Format("01-02 15:04")),
		fmt.Sprintf("- CPU：%.1f%% · 负载 %.2f/%.2f/%.2f", h.CPUPercent, h.LoadAverage[0], h.LoadAverage[1], h.LoadAverage[2]),
		fmt.Sprintf("- 内存：%.1f%% （%.1fGB / %.1fGB）", h.MemoryPercent, h.MemoryUsedGB, h.MemoryTotalGB),
		fmt.Sprintf("- 磁盘：%.1f%% （%.1fGB / %.1fGB）", h.DiskPercent, h.DiskUsedGB, h.DiskTotalGB),
		fmt.Sprintf("- 运行时长：约 %.1f 小时", h.UptimeHours),
		"",
	}, "\n")
}

// CalendarSection 渲染今日日程
func CalendarSection(events []collector.CalendarEvent) string {
	lines := []string{fmt.Sprintf("## 今日日程（%s）", config.Now().Format("01-02"))}
	if len(events) == 0 {
		lines = append(lines, "暂无事件或未配置 Google Calendar。")
		return strings.Join(lines, "\n") + "\n"
	}
	for _, event := range events {
		when := fmt.Sprintf("%s-%s", event.Start, event.End)
		if event.AllDay {
			when = "全天"
		}
		location := ""
		if event.Location != "" {
			location = " @ " + event.Location
		}
		lines = append(lines, fmt.Sprintf("- %s：%s%s", when, event.Summary, location))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func textOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatRange 渲染最低~最高区间，两端都缺时返回“未知”
func formatRange(min, max *float64) string {
	switch {
	case min == nil && max == nil:
		return "未知"
	case min == nil:
		return fmt.Sprintf("%.1f°C", *max)
	case max == nil:
		return fmt.Sprintf("%.1f°C", *min)
	default:
		return fmt.Sprintf("%.1f~%.1f°C", *min, *max)
	}
}

func formatFloat(v *float64, layout, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf(layout, *v)
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "--:--"
	}
	return t.Format("15:04")
}
