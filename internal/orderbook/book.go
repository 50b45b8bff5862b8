package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

var log = logrus.WithField("component", "orderbook")

// Book 进程内订单簿快照。撮合判定在这里刻意保持朴素：哪些订单可成交
// 由行情协作者（可成交性）与填单器的过滤器链决定，Book 只维护快照本身。
//
// 与外部订单簿协作者的契约一致：所有读取、插入与移除都要求调用方
// 持有快照门（Book 自身不加锁）。
type Book struct {
	orders map[domain.MarketIndex]map[string]*restingOrder
}

type restingOrder struct {
	order  domain.PendingOrder
	filled bool
}

// NewBook 创建空订单簿
func NewBook() *Book {
	return &Book{orders: make(map[domain.MarketIndex]map[string]*restingOrder)}
}

func orderKey(account domain.AccountRef, id domain.OrderID) string {
	return (&domain.FillCandidate{Account: account, Order: id}).Signature()
}

// InsertOrder 将新订单并入快照（重复插入覆盖并复位成交标志）
func (b *Book) InsertOrder(order domain.PendingOrder) {
	m, ok := b.orders[order.Market]
	if !ok {
		m = make(map[string]*restingOrder)
		b.orders[order.Market] = m
	}
	m[orderKey(order.Account, order.Order)] = &restingOrder{order: order}
}

// FindNodesToFill 返回市场内当前可成交的候选。快照只做存在性与成交标志
// 判断；价格与时机校验留给过滤器链（行情协作者）。
func (b *Book) FindNodesToFill(market domain.MarketIndex, _, _ decimal.Decimal, _ uint64, oraclePrice *decimal.Decimal) []*domain.FillCandidate {
	m := b.orders[market]
	if len(m) == 0 {
		return nil
	}
	if oraclePrice == nil {
		// 预言机价格缺席：没有可信的成交基准
		return nil
	}

	out := make([]*domain.FillCandidate, 0, len(m))
	for _, ro := range m {
		out = append(out, &domain.FillCandidate{
			Market:  market,
			Account: ro.order.Account,
			Order:   ro.order.Order,
			Filled:  ro.filled,
		})
	}
	return out
}

// RemoveOrder 从快照移除订单；onRemoved 在确实移除了条目时回调
func (b *Book) RemoveOrder(order domain.OrderID, account domain.AccountRef, onRemoved func()) {
	key := orderKey(account, order)
	for market, m := range b.orders {
		if _, ok := m[key]; ok {
			delete(m, key)
			if len(m) == 0 {
				delete(b.orders, market)
			}
			if onRemoved != nil {
				onRemoved()
			}
			return
		}
	}
	log.WithField("signature", key).Debug("remove requested for unknown order")
}

// MarkUnfilled 复位订单的已成交标志（失败路径回调）
func (b *Book) MarkUnfilled(c *domain.FillCandidate) {
	if c == nil {
		return
	}
	if m, ok := b.orders[c.Market]; ok {
		if ro, ok := m[c.Signature()]; ok {
			ro.filled = false
		}
	}
	c.Filled = false
}

// MarkFilled 标记订单已成交（归 Book 所有的标志）
func (b *Book) MarkFilled(c *domain.FillCandidate) {
	if c == nil {
		return
	}
	if m, ok := b.orders[c.Market]; ok {
		if ro, ok := m[c.Signature()]; ok {
			ro.filled = true
		}
	}
	c.Filled = true
}

// Snapshot 只读诊断视图
func (b *Book) Snapshot() domain.BookSnapshot {
	snap := domain.BookSnapshot{
		OrdersPerMarket: make(map[domain.MarketIndex]int, len(b.orders)),
		GeneratedAt:     time.Now().Unix(),
	}
	for market, m := range b.orders {
		snap.OrdersPerMarket[market] = len(m)
		snap.TotalOrders += len(m)
	}
	return snap
}
