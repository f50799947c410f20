package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy            bool      `json:"healthy"`
	LastRefresh        time.Time `json:"last_refresh"`
	Contests           int       `json:"contests"`
	Connections        int       `json:"connections"`
	PublisherConnected bool      `json:"publisher_connected"`
	Errors             []string  `json:"errors"`
}

// connectionChecker is implemented by publishers backed by a live connection
type connectionChecker interface {
	IsConnected() bool
}

// Health reports whether the gateway has a recent snapshot. A snapshot older
// than three refresh intervals makes the gateway unhealthy.
func (s *Service) Health(_ context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:            true,
		Connections:        s.connectionManager.GetConnectionStats().TotalConnections,
		PublisherConnected: true,
		Errors:             []string{},
	}

	snapshot := s.Snapshot()
	if snapshot == nil {
		status.Healthy = false
		status.Errors = append(status.Errors, "no snapshot fetched yet")
	} else {
		status.LastRefresh = snapshot.FetchedAt
		status.Contests = len(snapshot.Contests)

		threshold := 3 * s.config.RefreshInterval
		if age := s.clock.Since(snapshot.FetchedAt); age > threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("snapshot is %s old", age.Truncate(time.Second)))
		}
	}

	if checker, ok := s.publisher.(connectionChecker); ok {
		status.PublisherConnected = checker.IsConnected()
		if !status.PublisherConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

// HandleHealth handles GET /health/gateway
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.Health(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
