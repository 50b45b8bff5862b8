package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// OrderBook 订单簿协作者：维护共享的可变订单簿快照。
// 所有读取与移除都必须在快照门内进行（外部同步，见 filler.SnapshotGate）。
type OrderBook interface {
	// FindNodesToFill 给定当前最优买卖价、时钟值与（可能缺席的）预言机价格，
	// 返回该市场内可成交的候选序列（每周期重建，不可重放）
	FindNodesToFill(market domain.MarketIndex, bestBid, bestAsk decimal.Decimal, slot uint64, oraclePrice *decimal.Decimal) []*domain.FillCandidate

	// RemoveOrder 从快照中移除订单；onRemoved 在移除完成后回调（可为 nil）
	RemoveOrder(order domain.OrderID, account domain.AccountRef, onRemoved func())

	// InsertOrder 将新订单并入快照（事件触发路径）
	InsertOrder(order domain.PendingOrder)

	// MarkUnfilled 复位候选的已成交标志（标志归订单簿所有，失败路径回调）
	MarkUnfilled(c *domain.FillCandidate)

	// Snapshot 只读诊断视图
	Snapshot() domain.BookSnapshot
}

// MarketData 行情协作者：最优买卖价、预言机有效性与自动对手方可成交性
type MarketData interface {
	BestBid(market domain.MarketIndex) decimal.Decimal
	BestAsk(market domain.MarketIndex) decimal.Decimal
	IsOracleValid(market domain.MarketIndex, slot uint64) bool
	OraclePrice(market domain.MarketIndex) decimal.Decimal
	// Slot 当前时钟值
	Slot() uint64
	// IsFillableByAMM 当前价格/时机条件下，该候选能否由自动对手方成交
	IsFillableByAMM(c *domain.FillCandidate, slot uint64) bool
}

// AccountDirectory 账户目录协作者：账户引用 -> 归属身份 / 推荐人
type AccountDirectory interface {
	ResolveOwner(ref domain.AccountRef) (domain.Identity, error)
	Referrer(ref domain.AccountRef) (*domain.ReferrerInfo, error)
	AddAccount(ref domain.AccountRef)
}

// Execution 执行协作者：构建成交操作、批量提交并取回结局记录
type Execution interface {
	BuildFillOperation(ctx context.Context, info *domain.FillInfo) (*domain.Operation, error)

	// Submit 原子提交一批操作；失败返回 *domain.TransportError（带原始诊断行）
	Submit(ctx context.Context, ops []*domain.Operation) (domain.SubmissionID, error)

	// FetchOutcome 取回结局记录；尚不可得时返回 (nil, nil)
	FetchOutcome(ctx context.Context, id domain.SubmissionID) (*domain.OutcomeRecord, error)

	// SubmitterIdentity 提交者自身的资源引用（提交信封预置引用）
	SubmitterIdentity() domain.AccountRef

	// PreambleOperation 每次提交强制携带的前导操作
	PreambleOperation() *domain.Operation
}
