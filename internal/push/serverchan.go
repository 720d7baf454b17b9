// Package push 通过 Server酱 webhook 发送推送。
package push

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cwj/useful_push/internal/collector"
)

const (
	serverChanEndpoint = "https://sctapi.ftqq.com"
	sendTimeout        = 15 * time.Second
)

// ErrNoKey 未配置 SERVERCHAN_KEY 时无法发送，由调用方决定如何上报
var ErrNoKey = errors.New("SERVERCHAN_KEY 未配置，无法发送推送")

// ServerChan Server酱推送客户端
type ServerChan struct {
	key      string
	endpoint string
	client   *http.Client
}

func NewServerChan(key string) *ServerChan {
	return &ServerChan{
		key:      key,
		endpoint: serverChanEndpoint,
		client:   &http.Client{Timeout: sendTimeout},
	}
}

// Send 推送一条 (title, body)。body 为 markdown 文本。
func (s *ServerChan) Send(title, body string) error {
	if s.key == "" {
		return ErrNoKey
	}

	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", body)

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/%s.send", s.endpoint, s.key), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("send %q: %w", title, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", collector.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("send %q: status %d", title, resp.StatusCode)
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	log.Printf("Server酱推送成功：%s", strings.TrimSpace(string(raw)))
	return nil
}
