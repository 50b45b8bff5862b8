package filler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// selectCandidates 在快照门内对每个市场询问订单簿的可成交节点，
// 再套用本地过滤器，按市场顺序拼接为本周期的候选序列（每周期重建）。
func (f *Filler) selectCandidates(ctx context.Context) ([]*domain.FillCandidate, error) {
	if err := f.snapGate.Acquire(ctx, f.cfg.SnapshotGateTimeout); err != nil {
		return nil, err
	}
	defer f.snapGate.Release()

	slot := f.md.Slot()
	now := time.Now()

	var out []*domain.FillCandidate
	for _, market := range f.markets {
		bestBid := f.md.BestBid(market)
		bestAsk := f.md.BestAsk(market)

		var oracle *decimal.Decimal
		if f.md.IsOracleValid(market, slot) {
			p := f.md.OraclePrice(market)
			oracle = &p
		}

		for _, c := range f.book.FindNodesToFill(market, bestBid, bestAsk, slot, oracle) {
			if !f.admit(c, slot, now) {
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// admit 过滤器链，按序短路：
// 1. vAMM-only 且无 maker 且自动对手方此刻不可成交 -> 拒
// 2. 已标记成交 -> 拒
// 3. 签名仍在节流窗口内 -> 拒（过期条目顺带清除）
// 4. 无 maker 时要求自动对手方可成交 -> 否则拒
func (f *Filler) admit(c *domain.FillCandidate, slot uint64, now time.Time) bool {
	if c.VAMMOnly && c.Maker == nil && !f.md.IsFillableByAMM(c, slot) {
		return false
	}
	if c.Filled {
		return false
	}
	if f.throttle.IsThrottled(c.Signature(), now, f.cfg.ThrottleBackoff) {
		return false
	}
	if c.Maker == nil && !f.md.IsFillableByAMM(c, slot) {
		return false
	}
	return true
}

// resolveFillInfo 打包前组装成交元数据：taker 归属、maker 归属、推荐人
func (f *Filler) resolveFillInfo(c *domain.FillCandidate) (*domain.FillInfo, error) {
	info := &domain.FillInfo{Candidate: c}

	if c.Account != "" {
		id, err := f.accounts.ResolveOwner(c.Account)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve taker owner for %s", c.Account)
		}
		info.TakerOwner = id.Owner

		ref, err := f.accounts.Referrer(c.Account)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve referrer for %s", c.Account)
		}
		info.Referrer = ref
	}

	if c.Maker != nil {
		id, err := f.accounts.ResolveOwner(c.Maker.Account)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve maker owner for %s", c.Maker.Account)
		}
		info.MakerOwner = id.Owner
	}
	return info, nil
}
