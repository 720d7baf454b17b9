// Package enrich 负责新闻条目的翻译与摘要：优先走 OpenRouter，
// 失败或跳过时退回本地摘要。
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cwj/useful_push/internal/collector"
	"github.com/cwj/useful_push/internal/retry"
)

const (
	openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

	// 免费档限流 12 次/分钟，两次调用至少间隔 5 秒
	maxCallsPerMinute = 12
	maxAttempts       = 5
	backoffBase       = 3 * time.Second
	requestTimeout    = 60 * time.Second
)

// ErrUnavailable 表示外部翻译服务当前不可用（没有配置 key、重试耗尽、
// 响应无法解析）。调用方应当把它当成正常情况走本地兜底，而不是错误上抛。
var ErrUnavailable = errors.New("openrouter unavailable")

// Message 一条 chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer 外部文本生成端点的最小接口，policy 层只依赖它，测试里可替换
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// pacer 进程级限速状态：记录上一次外部调用的时间点。
// 每次调用前等足最小间隔，调用后（无论成败）都重新打点。
// 顺序处理下互斥锁并非必需，留着是为了将来并发抓取时不踩雷。
type pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
	now         func() time.Time
	sleep       func(time.Duration)
}

func (p *pacer) wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.last.IsZero() {
		if elapsed := p.now().Sub(p.last); elapsed < p.minInterval {
			p.sleep(p.minInterval - elapsed)
		}
	}
}

func (p *pacer) stamp() {
	p.mu.Lock()
	p.last = p.now()
	p.mu.Unlock()
}

// Client 带全局限速与有界重试的 OpenRouter 客户端
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	pace       *pacer
	retries    retry.Policy
	warnNoKey  sync.Once
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   openRouterURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		pace: &pacer{
			minInterval: time.Minute / maxCallsPerMinute,
			now:         time.Now,
			sleep:       time.Sleep,
		},
		retries: retry.Policy{
			MaxAttempts: maxAttempts,
			BaseDelay:   backoffBase,
			MaxJitter:   time.Second,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete 发送一次 chat 补全请求并返回生成文本。
// 没有配置 key 时不发任何网络请求，直接返回 ErrUnavailable；
// 重试耗尽后同样返回 ErrUnavailable。
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if c.apiKey == "" {
		c.warnNoKey.Do(func() {
			log.Println("OPENROUTER_KEY 未配置，跳过翻译与摘要")
		})
		return "", ErrUnavailable
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var content string
	err = c.retries.Do(func(attempt int) (bool, error) {
		c.pace.wait()
		text, err := c.attempt(ctx, body)
		c.pace.stamp()
		if err != nil {
			log.Printf("OpenRouter 调用失败：%v，稍后重试（第 %d 次）", err, attempt+1)
			return true, err
		}
		content = text
		return false, nil
	})
	if err != nil {
		log.Printf("OpenRouter 连续 %d 次调用失败，跳过本条内容", c.retries.MaxAttempts)
		return "", ErrUnavailable
	}
	return content, nil
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", collector.UserAgent)
	req.Header.Set("HTTP-Referer", "https://github.com/cwj/useful_push")
	req.Header.Set("X-Title", "useful_push")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", errors.New("status 429")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
