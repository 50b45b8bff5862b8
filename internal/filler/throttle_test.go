package filler

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

func TestThrottle_WindowSemantics(t *testing.T) {
	r := NewThrottleRegistry()
	backoff := 10 * time.Second
	base := time.Now()

	r.attempts["sig-1"] = base

	// [t, t+W) 内被节流
	if !r.IsThrottled("sig-1", base, backoff) {
		t.Fatalf("expected throttled at t")
	}
	if !r.IsThrottled("sig-1", base.Add(backoff-time.Millisecond), backoff) {
		t.Fatalf("expected throttled just before window end")
	}

	// t+W 起不再节流，且条目作为副作用被清除
	if r.IsThrottled("sig-1", base.Add(backoff), backoff) {
		t.Fatalf("expected not throttled at t+W")
	}
	if r.Size() != 0 {
		t.Fatalf("expired entry should be evicted, size=%d", r.Size())
	}
}

func TestThrottle_ZeroBackoffDisables(t *testing.T) {
	r := NewThrottleRegistry()
	r.RecordAttempt("sig-1")
	if r.IsThrottled("sig-1", time.Now(), 0) {
		t.Fatalf("zero backoff must disable throttling")
	}
}

func TestConfigDefaults_ExplicitZeroBackoffStaysDisabled(t *testing.T) {
	c := Config{}
	c.Defaults()
	if c.ThrottleBackoff != 0 {
		t.Fatalf("Defaults must not override an explicit zero backoff, got %v", c.ThrottleBackoff)
	}
}

func TestThrottle_SentinelNeverThrottled(t *testing.T) {
	r := NewThrottleRegistry()
	r.RecordAttempt(domain.SentinelSignature)
	if r.Size() != 0 {
		t.Fatalf("sentinel must never be recorded")
	}
	if r.IsThrottled(domain.SentinelSignature, time.Now(), time.Hour) {
		t.Fatalf("sentinel must never be throttled")
	}
}

func TestThrottle_ForgetClearsEntry(t *testing.T) {
	r := NewThrottleRegistry()
	r.RecordAttempt("sig-1")
	r.Forget("sig-1")
	if r.IsThrottled("sig-1", time.Now(), time.Hour) {
		t.Fatalf("forgotten signature must not be throttled")
	}
}

// 属性：recordAttempt(s) 于时刻 t 后，isThrottled(s, t', W) 在 t' ∈ [t, t+W) 为真，t' >= t+W 为假
func TestThrottle_WindowProperty(t *testing.T) {
	property := func(offsetMs uint32, windowMs uint32) bool {
		window := time.Duration(windowMs%60000+1) * time.Millisecond
		offset := time.Duration(offsetMs%120000) * time.Millisecond

		r := NewThrottleRegistry()
		base := time.Now()
		r.attempts["sig"] = base

		got := r.IsThrottled("sig", base.Add(offset), window)
		want := offset < window
		return got == want
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
}
