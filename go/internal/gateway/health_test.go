package gateway

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type disconnectedPublisher struct {
	fakePublisher
}

func (*disconnectedPublisher) IsConnected() bool { return false }

func TestHealth(t *testing.T) {
	h := newHarness(t)

	status := h.svc.Health(h.ctx)
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Errors, "no snapshot fetched yet")

	h.svc.Refresh(h.ctx)
	status = h.svc.Health(h.ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 3, status.Contests)
	assert.True(t, status.PublisherConnected)

	h.clock.Advance(4 * DefaultConfig().RefreshInterval)
	status = h.svc.Health(h.ctx)
	assert.False(t, status.Healthy)
	require.Len(t, status.Errors, 1)
	assert.Equal(t, "snapshot is 2m0s old", status.Errors[0])
}

func TestHealth_PublisherDisconnected(t *testing.T) {
	h := newHarness(t)
	svc := NewService(DefaultConfig(), Deps{
		Aggregator: h.agg,
		Publisher:  &disconnectedPublisher{},
		Clock:      h.clock,
	})
	svc.Refresh(h.ctx)

	status := svc.Health(h.ctx)
	assert.False(t, status.Healthy)
	assert.False(t, status.PublisherConnected)
	assert.Contains(t, status.Errors, "NATS disconnected")
}

func TestHandleHealth(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.server.URL + "/health/gateway")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	h.svc.Refresh(h.ctx)

	resp, err = http.Get(h.server.URL + "/health/gateway")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Healthy)
	assert.True(t, gatewayNow.Equal(status.LastRefresh))
}
