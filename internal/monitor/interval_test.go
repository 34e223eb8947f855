package monitor

import (
	"testing"
	"time"
)

func TestAdaptiveIntervalTiers(t *testing.T) {
	cases := []struct {
		usage    float64
		expected time.Duration
	}{
		{0, 5 * time.Minute},
		{69.9, 5 * time.Minute},
		{70, 2 * time.Minute},
		{84.9, 2 * time.Minute},
		{85, 1 * time.Minute},
		{94.9, 1 * time.Minute},
		{95, 30 * time.Second},
		{100, 30 * time.Second},
	}
	for _, c := range cases {
		if got := AdaptiveInterval(c.usage); got != c.expected {
			t.Errorf("AdaptiveInterval(%v) = %v, want %v", c.usage, got, c.expected)
		}
	}
}
