// Package limiter provides token bucket rate limiting keyed by request
// Package limiter 提供按请求键区分的令牌桶限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face limiter interface used by the middleware
// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule token bucket rule
// BucketRule 令牌桶规则
type BucketRule struct {
	// Key route path, or client IP prefix for IPLimiter
	// Key 路由路径
	Key string
	// FillInterval interval between refills
	// FillInterval 间隔多久放 Quantum 个令牌
	FillInterval time.Duration
	// Capacity bucket size
	// Capacity 令牌桶容量
	Capacity int64
	// Quantum tokens added per refill
	// Quantum 每次放入的令牌数
	Quantum int64
}

// MethodLimiter limits by request path without query string
// MethodLimiter 按接口路径限流
type MethodLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

// NewMethodLimiter creates a path keyed limiter
// NewMethodLimiter 创建按路径限流的限流器
func NewMethodLimiter() Face {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	if index := strings.Index(uri, "?"); index != -1 {
		return uri[:index]
	}
	return uri
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bucket, ok := l.buckets[key]
	return bucket, ok
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; !ok {
			l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, rule.Quantum)
		}
	}
	return l
}
