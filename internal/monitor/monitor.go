// Package monitor implements the adaptive quota monitor: the long-lived
// daemon loop that probes every key each tick, refreshes anything expired,
// runs the selector, and sleeps for an interval it picks from its own peak
// usage. It also runs an independent, fixed-cadence credential rediscovery
// job so a newly dropped-in credential file is noticed even during a long
// low-usage interval.
package monitor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/driftforge/keyrotate/infrastructure/lock"
	"github.com/driftforge/keyrotate/infrastructure/metrics"
	"github.com/driftforge/keyrotate/infrastructure/resilience"
	"github.com/driftforge/keyrotate/internal/credsource"
	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/internal/providerapi"
	"github.com/driftforge/keyrotate/internal/selector"
	"github.com/driftforge/keyrotate/pkg/logger"
)

// Config carries everything a Monitor needs beyond its collaborators.
type Config struct {
	ProbeDeadline  time.Duration
	RediscoverCron string // robfig/cron schedule, default hourly
	MetricPaths    providerapi.MetricPaths
	ClientID       string
	// OnTick, if set, is called after every successful tick (including
	// ticks with no rotation) so adminsrv can report tick freshness
	// without this package importing it.
	OnTick func(now int64, activeKeyID *string)
}

// Monitor is the daemon's per-process state: the usage_history ring and
// the interval used to reach the most recent tick, both of which only make
// sense threaded through one running instance, never as package globals.
type Monitor struct {
	store    *keyring.Store
	locker   lock.Locker
	provider *providerapi.Client
	metrics  *metrics.Metrics
	log      *logger.Logger
	cfg      Config

	history      *usageHistory
	intervalMs   int64
	syncer       *credsource.Syncer
	mu           sync.Mutex
}

// New builds a Monitor. sources is the full credential-source list used by
// the independent rediscovery job. New also builds the circuit breaker that
// guards the refresh client against a flapping provider across every tick
// and rediscovery run.
func New(
	store *keyring.Store,
	locker lock.Locker,
	provider *providerapi.Client,
	m *metrics.Metrics,
	log *logger.Logger,
	sources []credsource.Source,
	cfg Config,
) *Monitor {
	syncer := &credsource.Syncer{
		Sources:  sources,
		Provider: provider,
		ClientID: cfg.ClientID,
		Breaker:  resilience.New(resilience.DefaultConfig()),
	}
	return &Monitor{
		store:      store,
		locker:     locker,
		provider:   provider,
		metrics:    m,
		log:        log,
		cfg:        cfg,
		history:    newUsageHistory(keyring.UsageHistoryMax),
		intervalMs: (5 * time.Minute).Milliseconds(),
		syncer:     syncer,
	}
}

// Run starts the independent rediscovery cron job and then loops ticks
// until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	schedule := m.cfg.RediscoverCron
	if schedule == "" {
		schedule = "0 * * * *"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		m.rediscover(ctx)
	})
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	for {
		if err := m.Tick(ctx); err != nil {
			m.log.WithField("error", err.Error()).Warn("tick failed, continuing")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(m.intervalMs) * time.Millisecond):
		}
	}
}

// rediscover runs a full sync (discover, merge, refresh, prune) outside the
// regular tick cadence, so a newly dropped-in credential file is picked up
// promptly even during a long low-usage interval rather than waiting for
// the next adaptive tick.
func (m *Monitor) rediscover(ctx context.Context) {
	if err := m.locker.Lock(ctx); err != nil {
		return
	}
	defer m.locker.Unlock()

	kr := m.store.Load()
	m.syncer.Sync(ctx, kr)
	if err := m.store.Save(kr); err != nil {
		m.log.WithField("error", err.Error()).Warn("rediscovery save failed")
	}
}

// Tick runs one full daemon iteration per §4.6 steps 1-8.
func (m *Monitor) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.locker.Lock(ctx); err != nil {
		return err
	}
	defer m.locker.Unlock()

	now := keyring.NowMillis()

	// Step 1: load, then mark anything past its expiry before probing, so an
	// expired token is never sent to the probe endpoint.
	kr := m.store.Load()
	kr.MarkExpired(now)

	// Step 2: probe all non-invalid, non-expired keys in parallel.
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeDeadline)
	m.probeAll(probeCtx, kr, now)
	cancel()

	// Step 3: refresh anything expired (same branching as sync step 4).
	m.syncer.RefreshExpired(ctx, kr, now)

	// Step 4-5: push the active key's usage sample and compute velocity.
	peakUsage := 0.0
	if kr.ActiveKeyID != nil {
		if rec, ok := kr.Keys[*kr.ActiveKeyID]; ok && rec.LastUsage != nil {
			peakUsage = rec.LastUsage.Max()
		}
	}
	m.history.push(usageSample{Timestamp: now, Usage: peakUsage})
	velocity := m.history.velocity()

	// Step 6: selector.
	var switchEvents []keyring.RotationEvent
	if selected := selector.Select(kr, now); selected != nil {
		if ev := m.applyRotation(kr, selected, now, "quota_monitor_rotation", false); ev != nil {
			switchEvents = append(switchEvents, *ev)
		}
	}

	// Step 7: predictive check.
	if kr.ActiveKeyID != nil && peakUsage < keyring.ProactiveThreshold && velocity > 0 {
		projectedMs := (100 - peakUsage) / velocity * 60_000
		if projectedMs < float64(m.intervalMs)*1.5 {
			if alt := selector.BestAlternative(kr, now, *kr.ActiveKeyID); alt != nil {
				if ev := m.applyRotation(kr, alt, now, "quota_monitor_predictive", true); ev != nil {
					switchEvents = append(switchEvents, *ev)
				}
			}
		}
	}

	// Step 8: persist, then (only on success) write the human log lines for
	// any rotation, record metrics, and pick the next interval.
	if err := m.store.Save(kr); err != nil {
		return err
	}
	for _, ev := range switchEvents {
		m.store.LogHumanLine(ev)
	}
	m.sampleProcessStats()
	m.intervalMs = AdaptiveInterval(peakUsage).Milliseconds()
	if m.metrics != nil {
		m.metrics.TickIntervalMillis.Set(float64(m.intervalMs))
		m.metrics.UsageVelocity.WithLabelValues(activeKeyPrefix(kr)).Set(velocity)
	}
	if m.cfg.OnTick != nil {
		m.cfg.OnTick(now, kr.ActiveKeyID)
	}
	return nil
}

// applyRotation switches active_key_id to targetID if it differs from the
// current selection and appends key_switched. It returns the event so the
// caller can defer the human log line until after persistence succeeds
// (spec: "the human log line for key_switched is written only after
// persistence succeeds"); returns nil if no rotation happened.
func (m *Monitor) applyRotation(kr *keyring.Keyring, targetID *string, now int64, reason string, predictive bool) *keyring.RotationEvent {
	if kr.ActiveKeyID != nil && *kr.ActiveKeyID == *targetID {
		return nil
	}
	fromID := kr.ActiveKeyID
	kr.ActiveKeyID = targetID

	ev := keyring.RotationEvent{
		Timestamp:  now,
		Event:      keyring.EventKeySwitched,
		KeyID:      targetID,
		FromKeyID:  fromID,
		ToKeyID:    targetID,
		Reason:     reason,
		Predictive: predictive,
	}
	kr.AppendEvent(ev)
	if m.metrics != nil {
		m.metrics.RotationsTotal.WithLabelValues(reason).Inc()
	}
	return &ev
}

func activeKeyPrefix(kr *keyring.Keyring) string {
	if kr.ActiveKeyID == nil {
		return "-"
	}
	id := *kr.ActiveKeyID
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sampleProcessStats attaches a best-effort RSS/CPU reading for operator
// diagnostics. Any failure is silently ignored; this never affects the
// keyring or the tick's outcome.
func (m *Monitor) sampleProcessStats() {
	if m.metrics == nil {
		return
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		m.metrics.ProcessRSSBytes.Set(float64(mem.RSS))
	}
	if pct, err := proc.CPUPercent(); err == nil {
		m.metrics.ProcessCPUPercent.Set(pct)
	}
}
