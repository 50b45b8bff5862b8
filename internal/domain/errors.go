package domain

import (
	"fmt"
	"strings"
)

// TransportError 提交或回执获取在网络/协议层失败。
// 可恢复：触发节流，并依据诊断日志内容决定是否发起快照移除；对进程永不致命。
type TransportError struct {
	Op   string   // "submit" / "fetch_outcome"
	Logs []string // 失败时透出的原始诊断行
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

// Unwrap 支持 errors.Is / errors.As 链
func (e *TransportError) Unwrap() error { return e.Err }

// IsStaleOrder 诊断日志是否表明被引用的订单已不存在
func (e *TransportError) IsStaleOrder() bool {
	for _, line := range e.Logs {
		if strings.Contains(line, "does not exist") {
			return true
		}
	}
	return false
}

// BookSnapshot 订单簿快照的只读诊断视图
type BookSnapshot struct {
	OrdersPerMarket map[MarketIndex]int `json:"orders_per_market"`
	TotalOrders     int                 `json:"total_orders"`
	GeneratedAt     int64               `json:"generated_at"`
}
