package render

import (
	"strings"
	"testing"
	"time"

	"github.com/cwj/useful_push/internal/collector"
	"github.com/cwj/useful_push/internal/config"
)

func TestWeekdayCN(t *testing.T) {
	// 2025-06-02 是周一
	mon := time.Date(2025, 6, 2, 0, 0, 0, 0, config.Location)
	if got := WeekdayCN(mon); got != "周一" {
		t.Fatalf("got %q", got)
	}
	sun := mon.AddDate(0, 0, 6)
	if got := WeekdayCN(sun); got != "周日" {
		t.Fatalf("got %q", got)
	}
}

func TestNewsSectionEmpty(t *testing.T) {
	got := NewsSection("AI 热点（过去 24 小时）", nil)
	if !strings.Contains(got, "## AI 热点（过去 24 小时）") {
		t.Fatalf("missing title: %q", got)
	}
	if !strings.Contains(got, "暂无最新内容，稍后再来看看。") {
		t.Fatalf("missing empty placeholder: %q", got)
	}
}

func TestNewsSectionWithTranslation(t *testing.T) {
	published := time.Date(2025, 6, 1, 9, 30, 0, 0, config.Location)
	got := NewsSection("AI 热点", []collector.NewsEntry{
		{
			Title:       "Big model released",
			Link:        "https://example.com/a",
			PublishedAt: &published,
			Source:      "示例源",
			Description: "Original English text.",
			Translation: "中文译文。",
			Summary:     "要点总结。",
		},
	})

	if !strings.Contains(got, "1. [Big model released](https://example.com/a) · 示例源 · 06/01 09:30") {
		t.Fatalf("headline line wrong: %q", got)
	}
	if !strings.Contains(got, "   - 摘要：要点总结。") {
		t.Fatalf("summary line wrong: %q", got)
	}
	// 译文与原文不同，两行都要有
	if !strings.Contains(got, "   - 译文：中文译文。") || !strings.Contains(got, "   - 原文：Original English text.") {
		t.Fatalf("translation lines wrong: %q", got)
	}
}

func TestNewsSectionKeptOriginal(t *testing.T) {
	got := NewsSection("AI 热点", []collector.NewsEntry{
		{
			Title:       "本来就是中文",
			Link:        "https://example.com/b",
			Description: "中文描述。",
			Translation: "中文描述。",
			Summary:     "要点。",
		},
	})

	// 译文与原文相同时只展示一行原文
	if strings.Contains(got, "   - 译文：") {
		t.Fatalf("must not duplicate identical translation: %q", got)
	}
	if !strings.Contains(got, "   - 原文：中文描述。") {
		t.Fatalf("missing original line: %q", got)
	}
	// 时间缺失的占位
	if !strings.Contains(got, "时间未知") {
		t.Fatalf("missing unknown-time placeholder: %q", got)
	}
	// 来源缺失的占位
	if !strings.Contains(got, "来源未知") {
		t.Fatalf("missing unknown-source placeholder: %q", got)
	}
}

func TestWeatherSectionEmpty(t *testing.T) {
	got := WeatherSection(nil)
	if !strings.Contains(got, "天气数据获取失败。") {
		t.Fatalf("missing failure placeholder: %q", got)
	}
}

func TestWeatherSection(t *testing.T) {
	apMin, apMax := 26.0, 33.0
	wind, chance, sum := 15.0, 10.0, 0.4
	sunrise := time.Date(2025, 6, 2, 5, 30, 0, 0, config.Location)
	sunset := time.Date(2025, 6, 2, 18, 50, 0, 0, config.Location)

	got := WeatherSection([]collector.CityForecast{
		{
			City: "厦门市",
			Days: []collector.WeatherDay{
				{
					Date:         time.Date(2025, 6, 2, 0, 0, 0, 0, config.Location),
					Weather:      "晴",
					TempMin:      24.5,
					TempMax:      30.1,
					ApparentMin:  &apMin,
					ApparentMax:  &apMax,
					WindMax:      &wind,
					PrecipChance: &chance,
					PrecipSum:    &sum,
					Sunrise:      &sunrise,
					Sunset:       &sunset,
				},
			},
		},
	})

	if !strings.Contains(got, "### 厦门市") {
		t.Fatalf("missing city: %q", got)
	}
	if !strings.Contains(got, "- 06/02（周一） · 晴") {
		t.Fatalf("day line wrong: %q", got)
	}
	if !strings.Contains(got, "气温：24.5~30.1°C（体感 26.0~33.0°C）") {
		t.Fatalf("temperature line wrong: %q", got)
	}
	if !strings.Contains(got, "风速：15 km/h · 降水概率 10% · 预计降水 0.4mm") {
		t.Fatalf("wind line wrong: %q", got)
	}
	if !strings.Contains(got, "日出 05:30 / 日落 18:50") {
		t.Fatalf("sun line wrong: %q", got)
	}
}

func TestWeatherSectionMissingOptionals(t *testing.T) {
	got := WeatherSection([]collector.CityForecast{
		{
			City: "南平市浦城县",
			Days: []collector.WeatherDay{
				{Date: time.Date(2025, 6, 2, 0, 0, 0, 0, config.Location), Weather: "多云", TempMin: 20, TempMax: 25},
			},
		},
	})
	if !strings.Contains(got, "体感 未知") {
		t.Fatalf("missing apparent fallback: %q", got)
	}
	if !strings.Contains(got, "日出 --:-- / 日落 --:--") {
		t.Fatalf("missing clock fallback: %q", got)
	}
}

func TestHealthSection(t *testing.T) {
	got := HealthSection(collector.ServerHealth{
		CPUPercent:    12.3,
		LoadAverage:   [3]float64{0.5, 0.6, 0.7},
		MemoryPercent: 45.6,
		MemoryUsedGB:  7.3,
		MemoryTotalGB: 16.0,
		DiskPercent:   70.1,
		DiskUsedGB:    140.2,
		DiskTotalGB:   200.0,
		UptimeHours:   128.5,
	})

	if !strings.Contains(got, "- CPU：12.3% · 负载 0.50/0.60/0.70") {
		t.Fatalf("cpu line wrong: %q", got)
	}
	if !strings.Contains(got, "- 内存：45.6% （7.3GB / 16.0GB）") {
		t.Fatalf("memory line wrong: %q", got)
	}
	if !strings.Contains(got, "- 运行时长：约 128.5 小时") {
		t.Fatalf("uptime line wrong: %q", got)
	}
}

func TestCalendarSection(t *testing.T) {
	empty := CalendarSection(nil)
	if !strings.Contains(empty, "暂无事件或未配置 Google Calendar。") {
		t.Fatalf("missing empty placeholder: %q", empty)
	}

	got := CalendarSection([]collector.CalendarEvent{
		{Start: "09:00", End: "10:00", Summary: "周会", Location: "会议室"},
		{AllDay: true, Summary: "纪念日"},
	})
	if !strings.Contains(got, "- 09:00-10:00：周会 @ 会议室") {
		t.Fatalf("timed event wrong: %q", got)
	}
	if !strings.Contains(got, "- 全天：纪念日") {
		t.Fatalf("all-day event wrong: %q", got)
	}
}
