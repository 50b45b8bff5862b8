package filler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrGateBusy 周期门已被持有：本次触发直接放弃（不排队），非致命
	ErrGateBusy = errors.New("fill cycle already in flight")
	// ErrGateTimeout 快照门有界等待超时：放弃本周期，记错误日志，非致命
	ErrGateTimeout = errors.New("snapshot gate wait timed out")
)

// CycleGate 周期门：非阻塞准入，保证同时最多一个填单周期在执行。
// 第二个触发到来时立即放弃，绝不排队——在网络劣化时限制积压。
type CycleGate struct {
	running atomic.Bool
}

// TryEnter 非阻塞进入：Idle->Running 返回 true；已 Running 返回 false
func (g *CycleGate) TryEnter() bool {
	return g.running.CompareAndSwap(false, true)
}

// Leave 周期结束（无论成败）回到 Idle
func (g *CycleGate) Leave() {
	g.running.Store(false)
}

// Running 当前是否有周期在执行（诊断用）
func (g *CycleGate) Running() bool {
	return g.running.Load()
}

// SnapshotGate 快照门：保护订单簿快照读取/重建的互斥区，带有界等待。
// 等待超过 timeout 即返回 ErrGateTimeout，调用方放弃本周期而不是无限排队。
type SnapshotGate struct {
	sem chan struct{}
}

// NewSnapshotGate 创建快照门
func NewSnapshotGate() *SnapshotGate {
	return &SnapshotGate{sem: make(chan struct{}, 1)}
}

// Acquire 有界等待获取；超时返回 ErrGateTimeout，ctx 取消返回包装后的 ctx 错误
func (g *SnapshotGate) Acquire(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case g.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrGateTimeout
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "snapshot gate wait canceled")
	}
}

// Release 释放快照门（必须与成功的 Acquire 配对）
func (g *SnapshotGate) Release() {
	<-g.sem
}
