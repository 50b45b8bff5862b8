package domain

import "time"

// Event 闭合的事件变体类型：只有 OrderCreated / AccountCreated 两种，
// 通过类型分支分发，不做开放式动态派发。
type Event interface {
	eventTag() string
}

// PendingOrder 事件携带的新订单负载
type PendingOrder struct {
	Market  MarketIndex
	Account AccountRef
	Order   OrderID
}

// OrderCreatedEvent 新订单事件
type OrderCreatedEvent struct {
	Order     PendingOrder
	Timestamp time.Time
}

func (*OrderCreatedEvent) eventTag() string { return "orderCreated" }

// AccountCreatedEvent 新账户事件
type AccountCreatedEvent struct {
	Account   AccountRef
	Timestamp time.Time
}

func (*AccountCreatedEvent) eventTag() string { return "accountCreated" }
