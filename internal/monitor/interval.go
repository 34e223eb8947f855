package monitor

import "time"

// intervalTier is one row of the adaptive schedule: the upper bound (peak
// usage strictly less than this) and the interval to sleep before the next
// tick.
type intervalTier struct {
	lessThan float64
	interval time.Duration
}

// intervalTable is a pure linear scan, checked top to bottom; the last row
// has no upper bound and is the fallback for everything >= 95.
var intervalTable = []intervalTier{
	{lessThan: 70, interval: 5 * time.Minute},
	{lessThan: 85, interval: 2 * time.Minute},
	{lessThan: 95, interval: 1 * time.Minute},
}

const fallbackInterval = 30 * time.Second

// AdaptiveInterval returns the next tick interval for a given peak usage
// percentage, per the tiered schedule.
func AdaptiveInterval(peakUsage float64) time.Duration {
	for _, tier := range intervalTable {
		if peakUsage < tier.lessThan {
			return tier.interval
		}
	}
	return fallbackInterval
}
