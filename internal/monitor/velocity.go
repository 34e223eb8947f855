package monitor

// usageSample is one point in the per-process usage_history ring.
type usageSample struct {
	Timestamp int64 // epoch ms
	Usage     float64
}

// usageHistory is a fixed-capacity ring of the most recent usage samples,
// oldest first, capacity UsageHistoryMax per spec.
type usageHistory struct {
	samples  []usageSample
	capacity int
}

func newUsageHistory(capacity int) *usageHistory {
	return &usageHistory{samples: make([]usageSample, 0, capacity), capacity: capacity}
}

func (h *usageHistory) push(s usageSample) {
	h.samples = append(h.samples, s)
	if len(h.samples) > h.capacity {
		h.samples = h.samples[len(h.samples)-h.capacity:]
	}
}

// velocity computes percent-per-minute change between the oldest and
// newest samples. Zero with fewer than 2 samples or a non-positive
// timespan; negative values (usage decreasing) are preserved.
func (h *usageHistory) velocity() float64 {
	if len(h.samples) < 2 {
		return 0
	}
	oldest := h.samples[0]
	newest := h.samples[len(h.samples)-1]

	spanMs := newest.Timestamp - oldest.Timestamp
	if spanMs <= 0 {
		return 0
	}

	return (newest.Usage - oldest.Usage) / (float64(spanMs) / 60_000.0)
}
