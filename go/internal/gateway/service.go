package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/arabcoders/contesthub/go/internal/contests"
	"github.com/arabcoders/contesthub/go/internal/countdown"
)

// Aggregator produces contest snapshots
type Aggregator interface {
	Aggregate(ctx context.Context) (*contests.Snapshot, error)
}

// Service keeps the latest snapshot fresh and streams it with live
// countdowns to WebSocket clients.
type Service struct {
	aggregator        Aggregator
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	ticker            *countdown.Ticker
	publisher         SnapshotPublisher
	clock             clockwork.Clock
	metrics           MetricsCollector
	config            Config

	mu       sync.RWMutex
	snapshot *contests.Snapshot
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	RefreshInterval  time.Duration
	RefreshTimeout   time.Duration
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		RefreshInterval:  30 * time.Second,
		RefreshTimeout:   15 * time.Second,
	}
}

// Deps groups the collaborators of the gateway. Nil fields get defaults.
type Deps struct {
	Aggregator   Aggregator
	Ticker       *countdown.Ticker
	Publisher    SnapshotPublisher
	Clock        clockwork.Clock
	Metrics      MetricsCollector
	FormatterFor FormatterFunc
}

// NewService creates a new gateway service
func NewService(config Config, deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Metrics == nil {
		deps.Metrics = NoOpMetricsCollector{}
	}
	if deps.Publisher == nil {
		deps.Publisher = NoOpPublisher{}
	}
	if deps.Ticker == nil {
		deps.Ticker = countdown.NewTicker(deps.Clock, countdown.DefaultTickInterval)
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = DefaultConfig().RefreshTimeout
	}

	s := &Service{
		aggregator:        deps.Aggregator,
		connectionManager: NewConnectionManager(config.ConnectionConfig, deps.Clock, deps.Metrics),
		ticker:            deps.Ticker,
		publisher:         deps.Publisher,
		clock:             deps.Clock,
		metrics:           deps.Metrics,
		config:            config,
	}
	s.wsHandler = NewWebSocketHandler(s.connectionManager, deps.FormatterFor, s.welcome)
	return s
}

// Start refreshes immediately and then on every refresh interval, broadcasting
// a countdown on every shared tick. It blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().
		Dur("refresh_interval", s.config.RefreshInterval).
		Msg("starting contest gateway")

	ticks, unsubscribe := s.ticker.Subscribe()
	defer unsubscribe()

	go s.connectionManager.Start(ctx)

	s.Refresh(ctx)

	refresh := s.clock.NewTicker(s.config.RefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("contest gateway shutting down")
			return s.Stop()
		case <-refresh.Chan():
			s.Refresh(ctx)
		case now, ok := <-ticks:
			if !ok {
				// ticker stopped; keep refreshing without countdowns
				ticks = nil
				continue
			}
			s.broadcastTick(now)
		}
	}
}

// Stop releases the publisher
func (s *Service) Stop() error {
	if err := s.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close snapshot publisher")
		return err
	}
	log.Info().Msg("contest gateway stopped")
	return nil
}

// Refresh aggregates a new snapshot and broadcasts it. On failure the previous
// snapshot is kept and clients are told the refresh failed.
func (s *Service) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RefreshTimeout)
	defer cancel()

	snapshot, err := s.aggregator.Aggregate(ctx)
	now := s.clock.Now()
	if err != nil {
		s.metrics.RecordRefresh(false)
		log.Error().Err(err).Msg("failed to refresh contests")
		s.connectionManager.Broadcast(refreshFailedRenderer(s.Snapshot(), now))
		return
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.metrics.RecordRefresh(true)
	s.connectionManager.Broadcast(refreshedRenderer(snapshot, now))

	if err := s.publisher.Publish(ctx, snapshot); err != nil {
		s.metrics.RecordPublish(false)
		log.Error().Err(err).Msg("failed to publish snapshot")
		return
	}
	s.metrics.RecordPublish(true)
}

// Snapshot returns the latest successful snapshot, or nil before the first one
func (s *Service) Snapshot() *contests.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Service) broadcastTick(now time.Time) {
	snapshot := s.Snapshot()
	if snapshot == nil {
		return
	}
	s.connectionManager.Broadcast(tickRenderer(snapshot, now))
	s.metrics.RecordTick()
}

func (s *Service) welcome() RenderFunc {
	snapshot := s.Snapshot()
	if snapshot == nil {
		return nil
	}
	return refreshedRenderer(snapshot, s.clock.Now())
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET /health/gateway", s.HandleHealth)
}

// GetStats returns statistics about open connections
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
