package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(interval time.Duration) (*Limiter, *time.Time) {
	l := New(interval)
	now := time.Now()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinWindow(t *testing.T) {
	l, now := newTestLimiter(10 * time.Second)
	defer l.Stop()

	if !l.Allow("1.2.3.4") {
		t.Fatal("first request must pass")
	}
	if l.Allow("1.2.3.4") {
		t.Error("second request inside the window must be throttled")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other IPs are independent")
	}

	*now = now.Add(11 * time.Second)
	if !l.Allow("1.2.3.4") {
		t.Error("request after the window must pass")
	}
}

func TestThrottledRequestDoesNotExtendWindow(t *testing.T) {
	l, now := newTestLimiter(10 * time.Second)
	defer l.Stop()

	l.Allow("1.2.3.4")
	// hammering inside the window must not push the unlock time out
	for i := 0; i < 5; i++ {
		*now = now.Add(2 * time.Second)
		if l.Allow("1.2.3.4") {
			t.Fatalf("request at +%ds must be throttled", (i+1)*2)
		}
	}
	*now = now.Add(1 * time.Second) // 11s after the allowed request
	if !l.Allow("1.2.3.4") {
		t.Error("client must get through one interval after its last allowed request")
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	l, now := newTestLimiter(time.Second)
	defer l.Stop()

	l.Allow("1.2.3.4")
	l.Allow("5.6.7.8")
	if l.Size() != 2 {
		t.Fatalf("size = %d, want 2", l.Size())
	}

	*now = now.Add(5 * time.Second)
	l.Allow("5.6.7.8") // refresh one entry

	*now = now.Add(7 * time.Second) // first entry now idle 12s > 10 intervals
	l.Sweep()
	if l.Size() != 1 {
		t.Errorf("size after sweep = %d, want 1", l.Size())
	}
}
