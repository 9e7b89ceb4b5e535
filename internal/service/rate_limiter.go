package service

import (
	"fmt"
	"math"
	"time"

	"github.com/roomnest-next/internal/repository"
)

// RateRule 单条限流规则
type RateRule struct {
	Scope  string
	Key    string
	Window time.Duration
	Max    int
}

// RateLimiter 数据库计数限流器
// 固定窗口计数，计数桶在仓储层原子自增，多实例共享同一份计数。
// 限流存储不可用时失败关闭：宁可拒绝请求也不放行爆破流量。
type RateLimiter struct {
	repo repository.RateLimitRepository
	now  func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(repo repository.RateLimitRepository) *RateLimiter {
	return &RateLimiter{repo: repo, now: time.Now}
}

// HitAll 依次命中所有规则，任一超限即视为限流
// 所有桶都会计数（包括已超限后的后续桶），保证各维度统计完整；
// 返回的重试秒数取所有超限窗口中剩余时间最长的一个。
func (l *RateLimiter) HitAll(rules []RateRule) error {
	if l == nil || l.repo == nil {
		return ErrRateLimitUnavailable
	}
	now := l.now().UTC()

	retryAfter := 0
	limited := false
	for _, rule := range rules {
		if rule.Window <= 0 || rule.Max <= 0 || rule.Key == "" {
			continue
		}
		windowStart := now.Truncate(rule.Window)
		hits, err := l.repo.Hit(rule.Scope, rule.Key, windowStart)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
		}
		if hits > int64(rule.Max) {
			limited = true
			remaining := windowStart.Add(rule.Window).Sub(now).Seconds()
			if seconds := int(math.Ceil(remaining)); seconds > retryAfter {
				retryAfter = seconds
			}
		}
	}

	if limited {
		return NewRateLimitedError(retryAfter)
	}
	return nil
}

// TopBuckets 查询窗口期内命中量最高的桶
func (l *RateLimiter) TopBuckets(since time.Time, limit int) ([]repository.BucketTopEntry, error) {
	if l == nil || l.repo == nil {
		return nil, ErrRateLimitUnavailable
	}
	return l.repo.TopBuckets(since, limit)
}
