package collector

import (
	"context"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/cwj/useful_push/internal/config"
)

// CalendarEvent 今日日程里的一条事件；全天事件的 Start/End 是日期串，
// 普通事件是 HH:MM
type CalendarEvent struct {
	Start    string
	End      string
	Summary  string
	Location string
	AllDay   bool
}

// FetchCalendarEvents 读取今天（东八区自然日）的 Google Calendar 事件。
// 未配置凭证时返回空列表；API 出错只记日志，不影响其它板块。
func FetchCalendarEvents(ctx context.Context, credentialsFile, calendarID string) []CalendarEvent {
	if credentialsFile == "" || calendarID == "" {
		log.Println("Google Calendar 未配置，跳过日程板块")
		return nil
	}

	srv, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarReadonlyScope),
	)
	if err != nil {
		log.Printf("warn: init calendar service: %v", err)
		return nil
	}

	now := config.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Location)
	end := start.Add(24 * time.Hour)

	result, err := srv.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("warn: read calendar: %v", err)
		return nil
	}

	events := make([]CalendarEvent, 0, len(result.Items))
	for _, item := range result.Items {
		summary := item.Summary
		if summary == "" {
			summary = "无标题事件"
		}
		event := CalendarEvent{Summary: summary, Location: item.Location}

		if item.Start != nil && item.Start.Date != "" {
			// 全天事件只有日期
			event.AllDay = true
			event.Start = item.Start.Date
			event.End = item.Start.Date
			if item.End != nil && item.End.Date != "" {
				event.End = item.End.Date
			}
		} else {
			event.Start = clockLabel(item.Start)
			event.End = clockLabel(item.End)
		}
		events = append(events, event)
	}
	return events
}

func clockLabel(edt *calendar.EventDateTime) string {
	if edt == nil || edt.DateTime == "" {
		return "--:--"
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return "--:--"
	}
	return t.In(config.Location).Format("15:04")
}
