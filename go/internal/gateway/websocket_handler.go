package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/arabcoders/contesthub/go/internal/countdown"
)

// FormatterFunc picks the countdown formatter for an incoming request
type FormatterFunc func(r *http.Request) countdown.Formatter

// WebSocketHandler handles WebSocket upgrade requests for the countdown stream
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	formatterFor      FormatterFunc
	welcome           func() RenderFunc
}

// NewWebSocketHandler creates a new WebSocket handler. welcome returns the
// event sent right after connecting, or nil when there is nothing to send yet.
func NewWebSocketHandler(cm *ConnectionManager, formatterFor FormatterFunc, welcome func() RenderFunc) *WebSocketHandler {
	if formatterFor == nil {
		formatterFor = func(r *http.Request) countdown.Formatter {
			q := r.URL.Query()
			return countdown.NewFormatter(countdown.ParseLocale(q.Get("lang")), countdown.ParsePrecision(q.Get("precision")))
		}
	}
	return &WebSocketHandler{
		connectionManager: cm,
		formatterFor:      formatterFor,
		welcome:           welcome,
	}
}

// HandleContestsConnection handles GET /ws/contests
func (h *WebSocketHandler) HandleContestsConnection(w http.ResponseWriter, r *http.Request) {
	formatter := h.formatterFor(r)

	var welcome RenderFunc
	if h.welcome != nil {
		welcome = h.welcome()
	}

	// Upgrade writes its own error response
	if err := h.connectionManager.UpgradeConnection(w, r, formatter, welcome); err != nil {
		if errors.Is(err, ErrManagerClosed) {
			log.Warn().Msg("rejected WebSocket connection during shutdown")
			return
		}
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/contests", h.HandleContestsConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
