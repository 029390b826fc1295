package transport

import "testing"

func TestClockSyncFirstSampleSeedsRTT(t *testing.T) {
	c := NewClockSync()
	c.OnPingEcho(100, 140)
	if got := c.RTTMillis(); got != 40 {
		t.Fatalf("RTTMillis = %v, want 40", got)
	}
	if got := c.JitterMillis(); got != 0 {
		t.Fatalf("JitterMillis = %v, want 0 on first sample", got)
	}
}

func TestClockSyncSmoothsTowardNewSamples(t *testing.T) {
	c := NewClockSync()
	c.OnPingEcho(0, 40)
	c.OnPingEcho(100, 180) // sample of 80ms, above the 40ms baseline
	if got := c.RTTMillis(); got <= 40 || got >= 80 {
		t.Fatalf("RTTMillis = %v, want somewhere strictly between 40 and 80", got)
	}
	if got := c.JitterMillis(); got <= 0 {
		t.Fatalf("JitterMillis = %v, want > 0 after a deviating sample", got)
	}
}

func TestClockSyncOffsetFromExchange(t *testing.T) {
	c := NewClockSync()
	// local sends at t=1000, remote reports now=1050, local receives at t=1010.
	// midpoint = 1005, offset = 1050-1005 = 45.
	c.OnClockExchange(1000, 1050, 1010)
	if got := c.OffsetMillis(); got != 45 {
		t.Fatalf("OffsetMillis = %v, want 45", got)
	}
}
