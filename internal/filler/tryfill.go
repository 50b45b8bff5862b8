package filler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// FillCandidateNow 单候选直填路径：对一个外部触发的候选执行与批量周期
// 相同的成交/节流/移除契约，但绕开打包器，单独提交一笔操作。
// DryRun 打开时只打印 no-op，不提交。
func (f *Filler) FillCandidateNow(ctx context.Context, c *domain.FillCandidate) error {
	if c == nil {
		return errors.New("nil candidate")
	}
	sig := c.Signature()
	entry := log.WithFields(logrus.Fields{
		"signature": sig,
		"market":    c.Market,
	})

	info, err := f.resolveFillInfo(c)
	if err != nil {
		return errors.Wrap(err, "resolve fill info")
	}

	if f.cfg.DryRun {
		entry.Info("dry run: would fill candidate, skipping submission")
		return nil
	}

	op, err := f.exec.BuildFillOperation(ctx, info)
	if err != nil {
		return errors.Wrap(err, "build fill operation")
	}

	start := time.Now()
	_, err = f.exec.Submit(ctx, []*domain.Operation{op})
	f.observer.SubmissionSent(time.Since(start), err)
	if err != nil {
		entry.WithError(err).Error("single fill failed")

		// 失败：复位已成交标志（快照门内）、节流；订单已不存在时发起快照移除
		if gerr := f.snapGate.Acquire(ctx, f.cfg.SnapshotGateTimeout); gerr != nil {
			entry.WithError(gerr).Error("cannot acquire snapshot gate, unfilled flag not reset")
		} else {
			f.book.MarkUnfilled(c)
			f.snapGate.Release()
		}
		f.throttle.RecordAttempt(sig)

		var terr *domain.TransportError
		if errors.As(err, &terr) && terr.IsStaleOrder() {
			f.removeFromBook(ctx, []*domain.FillCandidate{c})
		}
		return nil
	}

	entry.WithField("took", time.Since(start)).Info("single fill submitted")
	return nil
}
