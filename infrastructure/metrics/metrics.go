// Package metrics exposes the daemon's Prometheus collectors: how often the
// usage probe runs and what it finds, how often keys rotate and why, and the
// velocity/interval state driving the adaptive tick. internal/adminsrv
// serves these at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the daemon registers.
type Metrics struct {
	ProbesTotal        *prometheus.CounterVec
	ProbeDuration      *prometheus.HistogramVec
	RefreshTotal       *prometheus.CounterVec
	RotationsTotal     *prometheus.CounterVec
	SyncRunsTotal      *prometheus.CounterVec
	SyncKeysDiscovered prometheus.Gauge
	SyncKeysPruned     *prometheus.CounterVec
	ActiveKeyUsage     *prometheus.GaugeVec
	TickIntervalMillis prometheus.Gauge
	UsageVelocity      *prometheus.GaugeVec
	ProcessRSSBytes    prometheus.Gauge
	ProcessCPUPercent  prometheus.Gauge
}

// New creates a Metrics instance registered against the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer.
// Passing nil skips registration (used by tests that only want the struct).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotate_probes_total",
				Help: "Total number of usage probes, labeled by outcome.",
			},
			[]string{"key_id_prefix", "outcome"},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyrotate_probe_duration_seconds",
				Help:    "Usage probe request duration in seconds.",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"key_id_prefix"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotate_refresh_total",
				Help: "Total number of refresh attempts, labeled by outcome (refreshed, invalid_grant, transient).",
			},
			[]string{"key_id_prefix", "outcome"},
		),
		RotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotate_rotations_total",
				Help: "Total number of active-key switches, labeled by reason.",
			},
			[]string{"reason"},
		),
		SyncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotate_sync_runs_total",
				Help: "Total number of credential-source sync runs, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		SyncKeysDiscovered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyrotate_sync_keys_discovered",
				Help: "Number of credentials discovered on the most recent sync.",
			},
		),
		SyncKeysPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotate_sync_keys_pruned_total",
				Help: "Total number of keyring entries pruned because their status was invalid.",
			},
			[]string{"key_id_prefix"},
		),
		ActiveKeyUsage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keyrotate_active_key_usage_percent",
				Help: "Most recent usage percentage for the active key, labeled by window.",
			},
			[]string{"window"},
		),
		TickIntervalMillis: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyrotate_tick_interval_milliseconds",
				Help: "Current adaptive monitor tick interval in milliseconds.",
			},
		),
		UsageVelocity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keyrotate_usage_velocity_percent_per_minute",
				Help: "Most recent peak-usage velocity for the active key, labeled by key id prefix.",
			},
			[]string{"key_id_prefix"},
		),
		ProcessRSSBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyrotate_process_rss_bytes",
				Help: "Resident set size of the monitor process, sampled each tick.",
			},
		),
		ProcessCPUPercent: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keyrotate_process_cpu_percent",
				Help: "CPU percent of the monitor process, sampled each tick.",
			},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.ProbesTotal,
			m.ProbeDuration,
			m.RefreshTotal,
			m.RotationsTotal,
			m.SyncRunsTotal,
			m.SyncKeysDiscovered,
			m.SyncKeysPruned,
			m.ActiveKeyUsage,
			m.TickIntervalMillis,
			m.UsageVelocity,
			m.ProcessRSSBytes,
			m.ProcessCPUPercent,
		)
	}

	return m
}
