package vlog

import "testing"

func TestThrottlerReportsFirstNUnconditionally(t *testing.T) {
	th := NewThrottler(5, 0)
	for i := int64(1); i <= 5; i++ {
		if !th.Report("site-a", nil) {
			t.Fatalf("expected report #%d to pass through under the instance limit", i)
		}
	}
}

func TestThrottlerSuppressesAfterLimitWithinDelay(t *testing.T) {
	th := NewThrottler(2, hour)
	for i := 0; i < 10; i++ {
		th.Report("site-b", nil)
	}
	// Calls 3-10 exceed the instance limit but still report, since the
	// stride is 1 for counters up to 10. The 11th call is within maxDelay
	// of the last report and the stride is now 10, so it is throttled.
	if th.Report("site-b", nil) {
		t.Fatal("expected eleventh report to be throttled")
	}
}

func TestThrottlerKeyedByObjectIndependently(t *testing.T) {
	th := NewThrottler(1, hour)
	th.Report("site-c", "file-a")
	if !th.Report("site-c", "file-b") {
		t.Fatal("expected a distinct object to get its own unthrottled report")
	}
}

const hour = 3600_000_000_000 // time.Hour, spelled out to avoid importing time in this file twice
