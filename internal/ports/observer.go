package ports

import (
	"time"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// Observer 观测接口：在固定扩展点上报计数与时长。
// 全部调用都是 fire-and-forget，缺省实现为 no-op，缺席不影响正确性。
type Observer interface {
	CycleStarted()
	CycleFinished(d time.Duration, packed, succeeded int)
	GateBusy()
	BatchPacked(count, bytes int)
	SubmissionSent(d time.Duration, err error)
	OutcomeRecorded(signature string, kind domain.OutcomeKind)
}

// NoopObserver 缺省的空观测实现
type NoopObserver struct{}

func (NoopObserver) CycleStarted()                              {}
func (NoopObserver) CycleFinished(time.Duration, int, int)      {}
func (NoopObserver) GateBusy()                                  {}
func (NoopObserver) BatchPacked(int, int)                       {}
func (NoopObserver) SubmissionSent(time.Duration, error)        {}
func (NoopObserver) OutcomeRecorded(string, domain.OutcomeKind) {}
