package filler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// packBatch 贪心打包：按选择顺序逐个解析操作并尝试加入，
// 首个放不下的候选使打包整体停止（不跳过、不回溯）。
func (f *Filler) packBatch(ctx context.Context, candidates []*domain.FillCandidate) *PendingBatch {
	batch := NewPendingBatch(f.cfg.MaxBatchBytes, f.exec.SubmitterIdentity(), f.exec.PreambleOperation())

	for _, c := range candidates {
		info, err := f.resolveFillInfo(c)
		if err != nil {
			log.WithError(err).WithField("signature", c.Signature()).Warn("cannot resolve fill metadata, skipping candidate")
			continue
		}
		op, err := f.exec.BuildFillOperation(ctx, info)
		if err != nil {
			log.WithError(err).WithField("signature", c.Signature()).Warn("cannot build fill operation, skipping candidate")
			continue
		}
		if !batch.TryAdd(c, op) {
			break
		}
	}
	return batch
}

// submitBatch 原子提交打包结果并调和结局。
// 传输层失败在此分类处理（节流全部候选，必要时发起快照移除），不向上抛。
func (f *Filler) submitBatch(ctx context.Context, cycleID string, batch *PendingBatch) (int, error) {
	start := time.Now()
	subID, err := f.exec.Submit(ctx, batch.Operations())
	f.observer.SubmissionSent(time.Since(start), err)

	if err != nil {
		f.handleSubmitError(ctx, cycleID, batch, err)
		if errors.Is(err, context.DeadlineExceeded) {
			// 周期超时：放弃等待并上报，不强制取消底层传输；下一周期独立推进
			log.WithField("cycle", cycleID).Warn("cycle timeout exceeded during submission")
		}
		return 0, nil
	}

	rec := f.fetchOutcome(ctx, subID)
	if rec == nil {
		log.WithFields(logrus.Fields{
			"cycle":      cycleID,
			"submission": subID,
		}).Warn("outcome unknown after bounded retries, throttling batch")
		for _, e := range batch.Entries() {
			f.throttle.RecordAttempt(e.Candidate.Signature())
		}
		return 0, nil
	}

	return f.reconcile(ctx, cycleID, batch, rec), nil
}

// handleSubmitError 传输失败：整批节流。诊断行能按结果日志文法归因到具体
// 候选时，只对被指认不存在的订单调度快照移除；归因不了的订单留在快照里，
// 由后续周期重新评估（提交是原子的，同批其余订单可能完全健康）。
func (f *Filler) handleSubmitError(ctx context.Context, cycleID string, batch *PendingBatch, err error) {
	entries := batch.Entries()
	log.WithError(err).WithFields(logrus.Fields{
		"cycle":  cycleID,
		"packed": len(entries),
	}).Error("batch submission failed")

	kinds := make([]domain.OutcomeKind, len(entries))
	var terr *domain.TransportError
	if errors.As(err, &terr) {
		kinds = ClassifyResultLog(terr.Logs, len(entries))
	}

	var removals []*domain.FillCandidate
	for i, e := range entries {
		f.throttle.RecordAttempt(e.Candidate.Signature())
		if kinds[i] == domain.OutcomeStaleOrder {
			removals = append(removals, e.Candidate)
		}
	}
	f.removeFromBook(ctx, removals)
}

// fetchOutcome 有界重试 + 固定间隔取回结局记录；到达上限后放弃（nil = 结局未知）
func (f *Filler) fetchOutcome(ctx context.Context, id domain.SubmissionID) *domain.OutcomeRecord {
	for attempt := 0; attempt < f.cfg.OutcomeFetchAttempts; attempt++ {
		rec, err := f.exec.FetchOutcome(ctx, id)
		if err != nil {
			log.WithError(err).WithField("submission", id).Debug("outcome fetch failed, retrying")
		} else if rec != nil {
			return rec
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.cfg.OutcomeFetchDelay):
		}
	}
	return nil
}

// reconcile 按打包顺序走结果日志，把每个结局回填到节流表与订单簿
func (f *Filler) reconcile(ctx context.Context, cycleID string, batch *PendingBatch, rec *domain.OutcomeRecord) int {
	entries := batch.Entries()
	kinds := ClassifyResultLog(rec.Logs, len(entries))

	succeeded := 0
	var removals []*domain.FillCandidate
	for i, e := range entries {
		sig := e.Candidate.Signature()
		kind := kinds[i]
		f.observer.OutcomeRecorded(sig, kind)
		if f.journal != nil {
			if jerr := f.journal.RecordOutcome(cycleID, sig, kind, time.Now()); jerr != nil {
				log.WithError(jerr).Debug("journal write failed")
			}
		}

		switch kind {
		case domain.OutcomeSucceeded:
			succeeded++
			f.throttle.Forget(sig)
		case domain.OutcomeStaleOrder:
			removals = append(removals, e.Candidate)
		case domain.OutcomeCounterpartyRejected:
			f.throttle.RecordAttempt(sig)
		default:
			log.WithFields(logrus.Fields{
				"cycle":     cycleID,
				"signature": sig,
				"market":    e.Candidate.Market,
			}).Warn("unparsed result log line, no state change")
		}
	}

	f.removeFromBook(ctx, removals)
	return succeeded
}

// removeFromBook 在快照门内发起移除；门超时只记日志，不中断调和
func (f *Filler) removeFromBook(ctx context.Context, removals []*domain.FillCandidate) {
	if len(removals) == 0 {
		return
	}
	if err := f.snapGate.Acquire(ctx, f.cfg.SnapshotGateTimeout); err != nil {
		log.WithError(err).Errorf("cannot acquire snapshot gate, %d removals dropped", len(removals))
		return
	}
	defer f.snapGate.Release()

	for _, c := range removals {
		sig := c.Signature()
		f.book.RemoveOrder(c.Order, c.Account, func() {
			log.WithFields(logrus.Fields{
				"signature": sig,
				"market":    c.Market,
			}).Info("stale order removed from snapshot")
		})
		f.throttle.Forget(sig)
	}
}
