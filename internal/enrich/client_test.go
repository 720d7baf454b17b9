package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient 指向本地测试服务，去掉真实等待
func newTestClient(key, endpoint string) *Client {
	c := NewClient(key, "test-model")
	c.endpoint = endpoint
	c.pace.sleep = func(time.Duration) {}
	c.retries.Sleep = func(time.Duration) {}
	return c
}

func TestCompleteWithoutKeySkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected zero network calls, got %d", calls)
	}
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth, gotReferer, gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"你好"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient("sk-test", srv.URL)
	content, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "你好" {
		t.Fatalf("got %q", content)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("got auth %q", gotAuth)
	}
	if gotReferer == "" || gotTitle == "" {
		t.Fatalf("expected identification headers, got referer=%q title=%q", gotReferer, gotTitle)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient("sk-test", srv.URL)
	content, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if content != "ok" || calls != 3 {
		t.Fatalf("content=%q calls=%d", content, calls)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient("sk-test", srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestCompleteEmptyChoicesIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := newTestClient("sk-test", srv.URL)
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestPacerEnforcesMinInterval(t *testing.T) {
	clock := time.Unix(1000, 0)
	var slept []time.Duration
	p := &pacer{
		minInterval: 5 * time.Second,
		now:         func() time.Time { return clock },
		sleep:       func(d time.Duration) { slept = append(slept, d); clock = clock.Add(d) },
	}

	// 首次调用不需要等待
	p.wait()
	if len(slept) != 0 {
		t.Fatalf("first call must not sleep, slept %v", slept)
	}
	p.stamp()

	// 2 秒后再调用需要补足剩余 3 秒
	clock = clock.Add(2 * time.Second)
	p.wait()
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Fatalf("expected one 3s sleep, got %v", slept)
	}
	p.stamp()

	// 超过最小间隔后不再等待
	clock = clock.Add(time.Minute)
	p.wait()
	if len(slept) != 1 {
		t.Fatalf("expected no extra sleep, got %v", slept)
	}
}

func TestPacerStampsAfterFailureToo(t *testing.T) {
	clock := time.Unix(2000, 0)
	var slept []time.Duration
	srvCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srvCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient("sk-test", srv.URL)
	c.pace.now = func() time.Time { return clock }
	c.pace.sleep = func(d time.Duration) { slept = append(slept, d); clock = clock.Add(d) }

	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, 0.2)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// 第一次尝试后已打点，失败的调用同样占用限速窗口
	if len(slept) != maxAttempts-1 {
		t.Fatalf("expected %d pacing sleeps, got %d", maxAttempts-1, len(slept))
	}
	for _, d := range slept {
		if d != c.pace.minInterval {
			t.Fatalf("expected full interval wait, got %v", d)
		}
	}
}
