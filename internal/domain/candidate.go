package domain

import "fmt"

// MarketIndex 永续市场索引
type MarketIndex uint16

// OrderID 订单 ID（账户内自增分配，由账本程序保证唯一）
type OrderID uint32

// AccountRef 账本上的账户引用（base58 公钥字符串）
type AccountRef string

// SentinelSignature 无账户引用时的哨兵签名
// 哨兵签名永远不会被节流，也不会与真实签名互相去重
const SentinelSignature = "~"

// MakerInfo 可选的 maker 对手单信息
type MakerInfo struct {
	Account AccountRef
	Order   OrderID
}

// FillCandidate 一次可成交匹配：taker 订单 + 可选 maker 对手单。
//
// 由订单簿协作者在判定订单可撮合时创建；Filled 标志归订单簿协作者所有，
// 本模块只读（失败后的复位通过 OrderBook.MarkUnfilled 回给协作者）。
type FillCandidate struct {
	Market  MarketIndex
	Account AccountRef // taker 账户引用，可能为空
	Order   OrderID
	Maker   *MakerInfo // 无 maker 时为 nil（只能与自动对手方成交）

	// VAMMOnly 订单簿标记：该匹配只可能由自动做市对手方完成，没有真人对手单
	VAMMOnly bool
	// Filled 订单簿协作者标记的已成交状态（本模块只读）
	Filled bool
}

// Signature 候选的稳定键：account-orderID；无账户引用时返回哨兵值
func (c *FillCandidate) Signature() string {
	if c == nil || c.Account == "" {
		return SentinelSignature
	}
	return fmt.Sprintf("%s-%d", c.Account, c.Order)
}

// Identity 账户的归属身份（由账户目录协作者解析）
type Identity struct {
	Owner AccountRef
}

// ReferrerInfo 推荐人信息（打包前组装进成交元数据）
type ReferrerInfo struct {
	Referrer      AccountRef
	ReferrerStats AccountRef
}

// FillInfo 打包一笔成交操作所需的完整元数据
type FillInfo struct {
	Candidate  *FillCandidate
	TakerOwner AccountRef
	MakerOwner AccountRef // 无 maker 时为空
	Referrer   *ReferrerInfo
}
