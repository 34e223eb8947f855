// Package engine wires every collaborator built in internal/ and
// infrastructure/ into one value constructed at process entry, per the
// "no hidden singletons" design note: configuration is a value passed in,
// caches live on the Engine, not behind package-level globals. cmd/keyhook
// and cmd/keymonitor both build one Engine and call into it; neither owns
// any wiring logic of its own.
package engine

import (
	"fmt"

	"github.com/driftforge/keyrotate/infrastructure/httputil"
	"github.com/driftforge/keyrotate/infrastructure/lock"
	"github.com/driftforge/keyrotate/infrastructure/metrics"
	"github.com/driftforge/keyrotate/infrastructure/ratelimit"
	"github.com/driftforge/keyrotate/infrastructure/resilience"
	"github.com/driftforge/keyrotate/internal/adminsrv"
	"github.com/driftforge/keyrotate/internal/credsource"
	"github.com/driftforge/keyrotate/internal/keyring"
	"github.com/driftforge/keyrotate/internal/monitor"
	"github.com/driftforge/keyrotate/internal/providerapi"
	"github.com/driftforge/keyrotate/pkg/config"
	"github.com/driftforge/keyrotate/pkg/logger"
)

// Engine holds every long-lived collaborator the hook and the daemon both
// need. Both entry points build one at startup and thread it through.
type Engine struct {
	Config   *config.Config
	Store    *keyring.Store
	Locker   lock.Locker
	Provider *providerapi.Client
	Metrics  *metrics.Metrics
	Log      *logger.Logger
	Sources  []credsource.Source
	Syncer   *credsource.Syncer
	Status   *adminsrv.Status
	Monitor  *monitor.Monitor
}

// New builds an Engine from cfg. log may be nil, in which case a logger is
// built from cfg.Logging.
func New(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.New(cfg.Logging)
	}

	store, err := keyring.NewStore(cfg.Keyring.StatePath, cfg.Keyring.HumanLogPath, cfg.Keyring.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("build keyring store: %w", err)
	}

	locker, err := lock.New(cfg.Lock)
	if err != nil {
		return nil, fmt.Errorf("build lock: %w", err)
	}

	httpClient, err := httputil.NewProviderClient(httputil.ProviderClientConfig{
		BaseURL:    cfg.Provider.BaseURL,
		BetaHeader: cfg.Provider.BetaHeader,
		Timeout:    cfg.Provider.RequestTimeout,
		RateLimit: ratelimit.RateLimitConfig{
			RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build provider client: %w", err)
	}
	provider := providerapi.NewClient(httpClient)

	m := metrics.New()
	status := &adminsrv.Status{}

	sources := []credsource.Source{
		credsource.NewHomeSource(cfg.Keyring.CredentialsPath),
	}

	syncer := &credsource.Syncer{
		Sources:  sources,
		Provider: provider,
		ClientID: cfg.Provider.ClientID,
		Breaker:  resilience.New(resilience.DefaultConfig()),
	}

	mon := monitor.New(store, locker, provider, m, log, sources, monitor.Config{
		ProbeDeadline:  cfg.Daemon.ProbeDeadline,
		RediscoverCron: cfg.Daemon.RediscoverCron,
		MetricPaths:    metricPathsFromConfig(cfg.Provider.MetricPaths),
		ClientID:       cfg.Provider.ClientID,
		OnTick:         status.RecordTick,
	})

	return &Engine{
		Config:   cfg,
		Store:    store,
		Locker:   locker,
		Provider: provider,
		Metrics:  m,
		Log:      log,
		Sources:  sources,
		Syncer:   syncer,
		Status:   status,
		Monitor:  mon,
	}, nil
}

// Close releases everything the Engine owns that needs an explicit
// shutdown step.
func (e *Engine) Close() error {
	return e.Store.Close()
}

func metricPathsFromConfig(raw map[string]string) providerapi.MetricPaths {
	return providerapi.MetricPaths{
		FiveHour:       raw["five_hour"],
		SevenDay:       raw["seven_day"],
		SevenDaySonnet: raw["seven_day_sonnet"],
	}
}
