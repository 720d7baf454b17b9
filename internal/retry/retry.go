// Package retry 提供采集与外部调用共用的有界重试策略。
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy 描述一组指数退避参数；Sleep 可注入，方便测试时去掉真实等待
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxJitter 每次退避额外增加 [0, MaxJitter) 的随机抖动
	MaxJitter time.Duration
	Sleep     func(time.Duration)
}

// Backoff 返回第 attempt 次（从 0 开始）失败后的等待时长：base*2^attempt + jitter
func (p Policy) Backoff(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return d
}

func (p Policy) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Do 反复执行 fn 直到成功或尝试次数用尽。
// fn 返回 (retryable=false, err) 表示不可重试的失败，立即返回该错误；
// 返回 (true, err) 则退避后重试。用尽次数后返回最后一次的错误。
func (p Policy) Do(fn func(attempt int) (retryable bool, err error)) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		retryable, err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		if attempt < p.MaxAttempts-1 {
			p.sleep(p.Backoff(attempt))
		}
	}
	return lastErr
}
