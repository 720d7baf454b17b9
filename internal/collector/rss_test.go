package collector

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/cwj/useful_push/internal/config"
)

func rssFeed(items ...string) string {
	body := ""
	for _, item := range items {
		body += item
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test feed</title>` + body + `</channel></rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate></item>`,
		title, link, published.Format(time.RFC1123Z))
}

func testFetcher(now time.Time) *FeedFetcher {
	f := NewFeedFetcher()
	f.now = func() time.Time { return now }
	return f
}

func TestFetchEntriesFiltersByWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, config.Location)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(
			rssItem("fresh", "https://example.com/fresh", now.Add(-2*time.Hour)),
			rssItem("stale", "https://example.com/stale", now.Add(-30*time.Hour)),
			`<item><title>undated</title><link>https://example.com/undated</link></item>`,
		))
	}))
	defer srv.Close()

	f := testFetcher(now)
	entries := f.FetchEntries([]config.NewsSource{{Category: "ai", Label: "测试源", URL: srv.URL}}, 24)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (fresh + undated), got %d: %v", len(entries), entries)
	}
	if entries[0].Title != "fresh" || entries[1].Title != "undated" {
		t.Fatalf("unexpected entries: %v", entries)
	}
	if entries[0].Source != "测试源" {
		t.Fatalf("expected source label stamped, got %q", entries[0].Source)
	}
	// 没有时间的条目视作最近，PublishedAt 保持 nil
	if entries[1].PublishedAt != nil {
		t.Fatalf("undated entry must keep nil time")
	}
}

func TestFetchEntriesOneFailingFeedDoesNotAbort(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, config.Location)
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(rssItem("ok", "https://example.com/ok", now.Add(-time.Hour))))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer bad.Close()

	f := testFetcher(now)
	entries := f.FetchEntries([]config.NewsSource{
		{Category: "ai", Label: "坏源", URL: bad.URL},
		{Category: "ai", Label: "好源", URL: good.URL},
	}, 24)

	if len(entries) != 1 || entries[0].Title != "ok" {
		t.Fatalf("expected the healthy feed to survive, got %v", entries)
	}
}

func TestFetchOneSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, rssFeed())
	}))
	defer srv.Close()

	f := NewFeedFetcher()
	if _, err := f.fetchOne(srv.URL); err != nil {
		t.Fatalf("fetchOne: %v", err)
	}
	if gotUA != UserAgent {
		t.Fatalf("expected UA %q, got %q", UserAgent, gotUA)
	}
}

func TestFetchOneRetriesOn503(t *testing.T) {
	oldSleep := feedRetry.Sleep
	feedRetry.Sleep = func(time.Duration) {}
	defer func() { feedRetry.Sleep = oldSleep }()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, rssFeed())
	}))
	defer srv.Close()

	f := NewFeedFetcher()
	if _, err := f.fetchOne(srv.URL); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestItemTimeFallsBackToUpdated(t *testing.T) {
	updated := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	item := &gofeed.Item{UpdatedParsed: &updated}
	got := itemTime(item)
	if got == nil {
		t.Fatal("expected updated time to be used")
	}
	if !got.Equal(updated) {
		t.Fatalf("expected %v, got %v", updated, got)
	}
	// 统一换算到东八区
	if got.Location() != config.Location {
		t.Fatalf("expected CST location, got %v", got.Location())
	}
}

func TestTrimWhitespace(t *testing.T) {
	if got := TrimWhitespace("  a\n\tb   c  "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Hello <b>world</b> &amp; friends</p>")
	if got != "Hello world & friends" {
		t.Fatalf("got %q", got)
	}
	if got := StripHTML(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	// 非 HTML 的纯文本原样返回
	if got := StripHTML("普通文本"); got != "普通文本" {
		t.Fatalf("got %q", got)
	}
}
