package domain

// OutcomeKind 单笔已提交候选的结局分类
type OutcomeKind int

const (
	// OutcomeUnparsed 结果日志行不匹配任何已知模式（记录日志，不改状态）
	OutcomeUnparsed OutcomeKind = iota
	// OutcomeSucceeded 成交成功
	OutcomeSucceeded
	// OutcomeStaleOrder 订单已不存在（触发快照移除）
	OutcomeStaleOrder
	// OutcomeCounterpartyRejected 自动对手方拒绝成交（只节流，不移除）
	OutcomeCounterpartyRejected
)

// String 返回分类的可读名称
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeStaleOrder:
		return "stale_order"
	case OutcomeCounterpartyRejected:
		return "counterparty_rejected"
	default:
		return "unparsed"
	}
}
