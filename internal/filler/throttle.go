package filler

import (
	"sync"
	"time"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// ThrottleRegistry 记录每个候选签名的最近尝试时间，抑制退避窗口内的重复尝试。
//
// 操作是幂等且副作用有界的：过期条目在下一次查询时视同不存在并被顺带清除。
// 哨兵签名（无账户引用的候选）永远不会被节流。
type ThrottleRegistry struct {
	mu       sync.Mutex
	attempts map[string]time.Time
}

// NewThrottleRegistry 创建空的节流注册表
func NewThrottleRegistry() *ThrottleRegistry {
	return &ThrottleRegistry{attempts: make(map[string]time.Time)}
}

// RecordAttempt 将签名的最近尝试时间覆盖为 now
func (r *ThrottleRegistry) RecordAttempt(signature string) {
	if signature == domain.SentinelSignature {
		return
	}
	r.mu.Lock()
	r.attempts[signature] = time.Now()
	r.mu.Unlock()
}

// IsThrottled 当且仅当存在条目且 now-entry < backoff 时返回 true；
// 条目已过期时作为副作用顺带清除。backoff<=0 表示节流关闭。
func (r *ThrottleRegistry) IsThrottled(signature string, now time.Time, backoff time.Duration) bool {
	if backoff <= 0 || signature == domain.SentinelSignature {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	at, ok := r.attempts[signature]
	if !ok {
		return false
	}
	if now.Sub(at) < backoff {
		return true
	}
	delete(r.attempts, signature)
	return false
}

// Forget 清除签名的节流条目（在该签名上观察到新的可撮合状态时调用）
func (r *ThrottleRegistry) Forget(signature string) {
	r.mu.Lock()
	delete(r.attempts, signature)
	r.mu.Unlock()
}

// Size 当前条目数（诊断用）
func (r *ThrottleRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
