package filler

import (
	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// 单包提交的尺寸核算。估算必须是确定性的、保守的（只高不低），
// 且与账本的线上编码规则逐字节一致，否则超预算的提交会被节点整体拒绝。
const (
	// DefaultMaxBatchBytes 单次提交的缺省硬预算（单个网络包）
	DefaultMaxBatchBytes = 1232

	// envelopeOverhead 提交信封的固定开销：
	// 1 个签名槽（64 字节 + 1 字节变长前缀）+ 3 字节头 + 32 字节区块引用
	// + 账户表与操作表的变长前缀（各按 3 字节上限计，保持估算单调保守）
	envelopeOverhead = 65 + 3 + 32 + 3 + 3

	// accountRefSize 每个新增资源引用在提交头中的边际开销
	accountRefSize = 32
)

// shortvecLen 变长长度前缀的字节数：<=127 占 1 字节，128..16383 占 2 字节，
// 16384 及以上占 3 字节。空数组仍占 1 字节前缀。
func shortvecLen(n int) int {
	switch {
	case n < 0x80:
		return 1
	case n < 0x4000:
		return 2
	default:
		return 3
	}
}

// OperationSize 单个操作的独立编码占用：
// 1 字节程序索引 + 账户索引表（前缀+每账户 1 字节）+ 负载（前缀+字节长）
func OperationSize(op *domain.Operation) int {
	n := len(op.Accounts)
	d := len(op.Data)
	return 1 + shortvecLen(n) + n + shortvecLen(d) + d
}

// BatchEntry 已接受的候选及其解析出的操作
type BatchEntry struct {
	Candidate *domain.FillCandidate
	Operation *domain.Operation
}

// PendingBatch 贪心打包中的单次提交：按接受顺序排列的条目、
// 去重后的资源引用集合与运行字节数。
//
// 不变式：任一候选被接受后运行字节数严格小于预算；接受顺序即供给顺序，
// 不重排也不回溯。首个放不下的候选使打包整体停止（忠实复刻，不做装箱优化）。
type PendingBatch struct {
	entries  []BatchEntry
	preamble *domain.Operation
	refs     map[domain.AccountRef]struct{}
	size     int
	max      int
	full     bool
}

// NewPendingBatch 以信封固定开销 + 前导操作初始化运行字节数，
// 引用集合预置提交者身份与前导操作的引用。
func NewPendingBatch(maxBytes int, submitter domain.AccountRef, preamble *domain.Operation) *PendingBatch {
	b := &PendingBatch{
		refs: make(map[domain.AccountRef]struct{}),
		size: envelopeOverhead,
		max:  maxBytes,
	}
	if submitter != "" {
		b.refs[submitter] = struct{}{}
		b.size += accountRefSize
	}
	if preamble != nil {
		b.preamble = preamble
		b.size += OperationSize(preamble)
		for _, ref := range preamble.References() {
			if _, ok := b.refs[ref]; ok {
				continue
			}
			b.refs[ref] = struct{}{}
			b.size += accountRefSize
		}
	}
	return b
}

// TryAdd 贪心追加一个候选。返回 false 表示加入它会达到或超出预算；
// 此后批次标记为已满，调用方不得再尝试后续（更小的）候选。
func (b *PendingBatch) TryAdd(c *domain.FillCandidate, op *domain.Operation) bool {
	if b.full {
		return false
	}

	opSize := OperationSize(op)
	marginal := 0
	for _, ref := range op.References() {
		if _, ok := b.refs[ref]; !ok {
			marginal += accountRefSize
		}
	}
	if b.size+opSize+marginal >= b.max {
		b.full = true
		return false
	}

	b.entries = append(b.entries, BatchEntry{Candidate: c, Operation: op})
	for _, ref := range op.References() {
		b.refs[ref] = struct{}{}
	}
	b.size += opSize + marginal
	return true
}

// Entries 按接受顺序返回条目
func (b *PendingBatch) Entries() []BatchEntry { return b.entries }

// Operations 返回提交用的操作列表：前导操作在先，其后按接受顺序
func (b *PendingBatch) Operations() []*domain.Operation {
	ops := make([]*domain.Operation, 0, len(b.entries)+1)
	if b.preamble != nil {
		ops = append(ops, b.preamble)
	}
	for i := range b.entries {
		ops = append(ops, b.entries[i].Operation)
	}
	return ops
}

// Size 当前估算的提交总字节数
func (b *PendingBatch) Size() int { return b.size }

// Empty 是否没有任何已接受的候选（合法且需上报的结局，不是错误）
func (b *PendingBatch) Empty() bool { return len(b.entries) == 0 }
