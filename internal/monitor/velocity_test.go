package monitor

import "testing"

func TestVelocityZeroWithFewerThanTwoSamples(t *testing.T) {
	h := newUsageHistory(5)
	if v := h.velocity(); v != 0 {
		t.Fatalf("expected 0 with no samples, got %v", v)
	}
	h.push(usageSample{Timestamp: 1000, Usage: 30})
	if v := h.velocity(); v != 0 {
		t.Fatalf("expected 0 with one sample, got %v", v)
	}
}

func TestVelocityComputesEndToEndScenario(t *testing.T) {
	h := newUsageHistory(5)
	h.push(usageSample{Timestamp: 0, Usage: 30})
	h.push(usageSample{Timestamp: 2 * 60_000, Usage: 93})

	v := h.velocity()
	want := 31.5
	if diff := v - want; diff > 0.01 || diff < -0.01 {
		t.Fatalf("expected velocity ~%v, got %v", want, v)
	}
}

func TestVelocityNegativeIsPreserved(t *testing.T) {
	h := newUsageHistory(5)
	h.push(usageSample{Timestamp: 0, Usage: 80})
	h.push(usageSample{Timestamp: 60_000, Usage: 50})

	if v := h.velocity(); v >= 0 {
		t.Fatalf("expected negative velocity, got %v", v)
	}
}

func TestVelocityNonPositiveTimespanIsZero(t *testing.T) {
	h := newUsageHistory(5)
	h.push(usageSample{Timestamp: 1000, Usage: 30})
	h.push(usageSample{Timestamp: 1000, Usage: 50})

	if v := h.velocity(); v != 0 {
		t.Fatalf("expected 0 for zero timespan, got %v", v)
	}
}

func TestUsageHistoryTrimsToCapacity(t *testing.T) {
	h := newUsageHistory(3)
	for i := 0; i < 10; i++ {
		h.push(usageSample{Timestamp: int64(i), Usage: float64(i)})
	}
	if len(h.samples) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(h.samples))
	}
	if h.samples[0].Timestamp != 7 {
		t.Fatalf("expected oldest kept sample to be timestamp 7, got %d", h.samples[0].Timestamp)
	}
}
