// Package app wires the generation pipeline from configuration: storage,
// provider clients, the safety guard, the provider registry, usage delivery
// and metrics. The binaries under cmd/ share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/guard"
	"github.com/spetersoncode/abapforge/internal/metrics"
	"github.com/spetersoncode/abapforge/orchestrator"
	"github.com/spetersoncode/abapforge/provider"
	"github.com/spetersoncode/abapforge/registry"
	"github.com/spetersoncode/abapforge/store"
	"github.com/spetersoncode/abapforge/store/sqlite"
	"github.com/spetersoncode/abapforge/usage"
	"github.com/spetersoncode/abapforge/usage/natssink"
)

// App is a wired generation pipeline.
type App struct {
	Config       *Config
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer

	queue   *usage.Queue
	closers []func() error
	logger  *slog.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	factory ai.ClientFactory
	store   store.Store
}

// WithClientFactory replaces the provider client factory.
func WithClientFactory(f ai.ClientFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithStore replaces the configured storage backend.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// New builds the pipeline described by cfg. Close releases its resources.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	guardProvider, err := ai.ParseProvider(cfg.GuardProvider)
	if err != nil {
		return nil, err
	}
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}
	rates, err := cfg.RateTable()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logger}

	if o.store != nil {
		a.Store = o.store
	} else {
		s, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		a.Store = s
		if closer, ok := s.(interface{ Close() error }); ok {
			a.closers = append(a.closers, closer.Close)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(reg)
	a.Gatherer = reg

	sink, err := a.usageSink(cfg)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}
	a.queue = usage.NewQueue(sink,
		usage.WithBuffer(cfg.UsageBuffer),
		usage.WithLogger(logger),
		usage.WithDropHook(a.Metrics.UsageDropped),
	)

	factory := o.factory
	if factory == nil {
		var fopts []provider.Option
		if cfg.GroqBaseURL != "" {
			fopts = append(fopts, provider.WithBaseURL(ai.ProviderGroq, cfg.GroqBaseURL))
		}
		if cfg.ArceeBaseURL != "" {
			fopts = append(fopts, provider.WithBaseURL(ai.ProviderArcee, cfg.ArceeBaseURL))
		}
		factory = provider.NewFactory(fopts...)
	}

	gopts := []guard.Option{
		guard.WithProvider(guardProvider),
		guard.WithModel(cfg.GuardModelOrDefault()),
		guard.WithTimeout(cfg.GuardTimeout),
		guard.WithLogger(logger),
	}
	if cred, ok := cfg.GuardCredential(); ok {
		gopts = append(gopts, guard.WithPlatformCredential(cred))
	}
	g := guard.New(a.Store, factory, gopts...)

	r := registry.New(a.Store, registry.WithOrder(order...), registry.WithLogger(logger))

	a.Orchestrator = orchestrator.New(g, r, factory,
		orchestrator.WithRates(rates),
		orchestrator.WithAttemptTimeout(cfg.AttemptTimeout),
		orchestrator.WithUsageReporter(a.queue),
		orchestrator.WithMetrics(a.Metrics),
		orchestrator.WithLogger(logger),
	)
	return a, nil
}

func openStore(cfg *Config) (store.Store, error) {
	switch cfg.Store {
	case StoreMemory:
		return store.NewMemory(), nil
	case StoreSQLite:
		s, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

// usageSink persists usage in the store and, when configured, publishes it
// to NATS as well.
func (a *App) usageSink(cfg *Config) (usage.Sink, error) {
	if cfg.NATSURL == "" {
		return a.Store, nil
	}
	nc, err := natssink.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	a.closers = append(a.closers, func() error {
		nc.Close()
		return nil
	})
	a.logger.Info("publishing usage to nats", "url", nc.ConnectedUrl(), "subject", cfg.NATSSubject, "flush", cfg.NATSFlush)
	return usage.MultiSink{a.Store, natssink.New(nc, natsOptions(cfg)...)}, nil
}

func natsOptions(cfg *Config) []natssink.Option {
	return []natssink.Option{
		natssink.WithSubject(cfg.NATSSubject),
		natssink.WithFlush(cfg.NATSFlush),
	}
}

// Close drains pending usage records and releases storage and connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.queue != nil {
		if err := a.queue.Close(ctx); err != nil && !errors.Is(err, usage.ErrQueueClosed) {
			errs = append(errs, fmt.Errorf("drain usage queue: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	// Close in reverse order of acquisition.
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
