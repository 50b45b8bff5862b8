package filler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
	"github.com/tomland123/keeper-bots-v2/internal/ports"
	"github.com/tomland123/keeper-bots-v2/pkg/sigchan"
)

var log = logrus.WithField("component", "filler")

// OutcomeJournal 结局流水（可选注入；缺席不影响正确性）
type OutcomeJournal interface {
	RecordOutcome(cycleID, signature string, kind domain.OutcomeKind, at time.Time) error
}

// Deps 填单器的协作者集合
type Deps struct {
	OrderBook  ports.OrderBook
	MarketData ports.MarketData
	Accounts   ports.AccountDirectory
	Execution  ports.Execution
	Observer   ports.Observer // nil => NoopObserver
	Journal    OutcomeJournal // nil => 不落盘
}

// Filler 填单器：单逻辑 worker，由固定间隔定时器与事件触发共同驱动，
// 周期门保证同时最多一个周期体在执行。
type Filler struct {
	cfg     Config
	markets []domain.MarketIndex

	book     ports.OrderBook
	md       ports.MarketData
	accounts ports.AccountDirectory
	exec     ports.Execution
	observer ports.Observer
	journal  OutcomeJournal

	throttle  *ThrottleRegistry
	cycleGate CycleGate
	snapGate  *SnapshotGate

	trigger  *sigchan.Chan
	loopOnce sync.Once
	cancel   context.CancelFunc
}

// New 创建填单器实例。状态（节流表、门标志）归实例所有，
// 不依赖任何环境全局量，测试中可并行跑多个实例。
func New(cfg Config, markets []domain.MarketIndex, deps Deps) *Filler {
	cfg.Defaults()
	obs := deps.Observer
	if obs == nil {
		obs = ports.NoopObserver{}
	}
	return &Filler{
		cfg:      cfg,
		markets:  markets,
		book:     deps.OrderBook,
		md:       deps.MarketData,
		accounts: deps.Accounts,
		exec:     deps.Execution,
		observer: obs,
		journal:  deps.Journal,
		throttle: NewThrottleRegistry(),
		snapGate: NewSnapshotGate(),
		trigger:  sigchan.New(1),
	}
}

// Start 启动调度循环：定时器与触发信号汇入同一个周期入口。
// 周期内的已处理错误不会终止循环；未知错误向上抛出并停止循环。
func (f *Filler) Start(ctx context.Context) {
	f.loopOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		f.cancel = cancel
		go f.loop(loopCtx)
	})
}

// Stop 停止调度循环
func (f *Filler) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *Filler) loop(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-f.trigger.C():
		}

		if err := f.RunCycle(ctx); err != nil && !handledCycleError(err) {
			log.WithError(err).Error("fill cycle failed with unexpected error, stopping loop")
			return
		}
	}
}

// handledCycleError 周期边界上已被分类处理、不应终止调度的错误
func handledCycleError(err error) bool {
	return errors.Is(err, ErrGateBusy) ||
		errors.Is(err, ErrGateTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// RunCycle 周期入口：可被任意次重复调用，周期门保证至多一个周期体执行。
// 已分类的条件（门忙、门超时、传输失败）在此处理并返回对应错误值；
// 只有分类之外的意外错误需要调用方处理。
func (f *Filler) RunCycle(ctx context.Context) error {
	if !f.cycleGate.TryEnter() {
		// 忙则丢弃，不排队：下一个周期会重新评估全部候选
		f.observer.GateBusy()
		log.Debug("cycle gate busy, dropping trigger")
		return ErrGateBusy
	}
	defer f.cycleGate.Leave()

	start := time.Now()
	cycleID := uuid.NewString()[:8]
	f.observer.CycleStarted()

	cycleCtx, cancel := context.WithTimeout(ctx, f.cfg.CycleTimeout)
	defer cancel()

	candidates, err := f.selectCandidates(cycleCtx)
	if err != nil {
		if errors.Is(err, ErrGateTimeout) {
			log.WithField("cycle", cycleID).Error("snapshot gate timed out, aborting cycle")
		}
		return err
	}

	batch := f.packBatch(cycleCtx, candidates)
	if batch.Empty() {
		log.WithFields(logrus.Fields{
			"cycle":   cycleID,
			"offered": len(candidates),
		}).Info("no operation fit, nothing to submit")
		f.observer.CycleFinished(time.Since(start), 0, 0)
		return nil
	}
	f.observer.BatchPacked(len(batch.Entries()), batch.Size())

	succeeded, err := f.submitBatch(cycleCtx, cycleID, batch)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"cycle":     cycleID,
		"packed":    len(batch.Entries()),
		"succeeded": succeeded,
		"took":      time.Since(start),
	}).Info("fill cycle finished")
	f.observer.CycleFinished(time.Since(start), len(batch.Entries()), succeeded)
	return nil
}

// OnEvent 事件触发入口：闭合变体按类型分发，随后触发一次周期
func (f *Filler) OnEvent(ctx context.Context, ev domain.Event) {
	switch e := ev.(type) {
	case *domain.OrderCreatedEvent:
		if err := f.snapGate.Acquire(ctx, f.cfg.SnapshotGateTimeout); err != nil {
			log.WithError(err).Error("cannot insert order into snapshot")
			return
		}
		f.book.InsertOrder(e.Order)
		f.snapGate.Release()
		// 新订单意味着该签名上出现了全新的可撮合状态
		f.throttle.Forget((&domain.FillCandidate{Account: e.Order.Account, Order: e.Order.Order}).Signature())
	case *domain.AccountCreatedEvent:
		f.accounts.AddAccount(e.Account)
	default:
		log.Warnf("unknown event type %T, ignoring", ev)
		return
	}
	f.trigger.Emit()
}

// Trigger 请求尽快执行一次周期（非阻塞）
func (f *Filler) Trigger() {
	f.trigger.Emit()
}

// Snapshot 当前订单簿快照的只读诊断视图（在快照门内读取）
func (f *Filler) Snapshot(ctx context.Context) (domain.BookSnapshot, error) {
	if err := f.snapGate.Acquire(ctx, f.cfg.SnapshotGateTimeout); err != nil {
		return domain.BookSnapshot{}, err
	}
	defer f.snapGate.Release()
	return f.book.Snapshot(), nil
}

// ThrottleSize 节流表当前条目数（诊断用）
func (f *Filler) ThrottleSize() int { return f.throttle.Size() }
