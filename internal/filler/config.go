package filler

import "time"

// Config 填单器配置
type Config struct {
	// PollInterval 周期触发间隔
	PollInterval time.Duration
	// ThrottleBackoff 同一候选签名两次尝试之间的最小间隔（0 关闭节流）
	ThrottleBackoff time.Duration
	// MaxBatchBytes 单次提交的硬字节预算
	MaxBatchBytes int
	// SnapshotGateTimeout 快照门的有界等待上限
	SnapshotGateTimeout time.Duration
	// CycleTimeout 整个周期（含批量提交）的超时上限，超时记日志不崩溃
	CycleTimeout time.Duration
	// OutcomeFetchAttempts 结局记录取回的最大尝试次数
	OutcomeFetchAttempts int
	// OutcomeFetchDelay 取回尝试之间的固定间隔
	OutcomeFetchDelay time.Duration
	// DryRun 纸交易模式：单候选直填路径只打印不提交
	DryRun bool
}

// DefaultThrottleBackoff 节流窗口的建议缺省值。Defaults 不填充它：
// 显式的 0 表示关闭节流，与“未设置”由装配层（配置文件缺项）区分。
const DefaultThrottleBackoff = 10 * time.Second

// Defaults 填充缺省值
func (c *Config) Defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 6 * time.Second
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if c.SnapshotGateTimeout <= 0 {
		c.SnapshotGateTimeout = 5 * time.Second
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = 30 * time.Second
	}
	if c.OutcomeFetchAttempts <= 0 {
		c.OutcomeFetchAttempts = 10
	}
	if c.OutcomeFetchDelay <= 0 {
		c.OutcomeFetchDelay = time.Second
	}
}
