package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arabcoders/contesthub/go/clients/arab_coders_client"
	"github.com/arabcoders/contesthub/go/internal/config"
	"github.com/arabcoders/contesthub/go/internal/contests"
	"github.com/arabcoders/contesthub/go/internal/countdown"
	"github.com/arabcoders/contesthub/go/internal/gateway"
	"github.com/arabcoders/contesthub/go/internal/metrics"
)

type Services struct {
	Contests *contests.Service
	Gateway  *gateway.Service
	Ticker   *countdown.Ticker
	Registry *prometheus.Registry
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Client → App → Service, with the gateway sharing the App
	clock := clockwork.NewRealClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	client := arab_coders_client.NewArabCodersClient(cfg.APIBaseURL, arab_coders_client.Options{
		Token:      cfg.APIToken,
		Timeout:    cfg.FetchTimeout,
		RatePerSec: cfg.FetchRatePerSec,
		Burst:      cfg.FetchBurst,
		Endpoints:  cfg.Endpoints(),
	})

	contestsApp := contests.NewApp(client, clock, collector)
	contestsService := contests.NewService(contestsApp, clock, contests.ServiceOptions{
		DefaultLocale: cfg.DefaultLocale,
		Locales:       cfg.Locales(),
	})

	publisher, err := setupPublisher(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}

	ticker := countdown.NewTicker(clock, cfg.TickInterval)
	metrics.RegisterDroppedTicks(registry, ticker.Dropped)

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.RefreshInterval = cfg.RefreshInterval
	gatewayConfig.RefreshTimeout = cfg.FetchTimeout + cfg.FetchTimeout/2

	gatewayService := gateway.NewService(gatewayConfig, gateway.Deps{
		Aggregator:   contestsApp,
		Ticker:       ticker,
		Publisher:    publisher,
		Clock:        clock,
		Metrics:      collector,
		FormatterFor: contestsService.Formatter,
	})

	return &Services{
		Contests: contestsService,
		Gateway:  gatewayService,
		Ticker:   ticker,
		Registry: registry,
	}, nil
}

func setupPublisher(ctx context.Context, cfg config.Config, clock clockwork.Clock) (gateway.SnapshotPublisher, error) {
	if cfg.NATSURL == "" {
		return gateway.NoOpPublisher{}, nil
	}

	jsConfig := gateway.DefaultJetStreamConfig()
	jsConfig.URL = cfg.NATSURL
	jsConfig.SubjectPrefix = cfg.NATSSubjectPrefix

	publisher, err := gateway.NewJetStreamPublisher(ctx, jsConfig, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot publisher: %w", err)
	}
	return publisher, nil
}
