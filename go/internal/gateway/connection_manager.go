package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/arabcoders/contesthub/go/internal/countdown"
)

// ErrManagerClosed is returned for upgrades attempted after shutdown began
var ErrManagerClosed = errors.New("connection manager closed")

// ConnectionManager manages the countdown WebSocket connections
type ConnectionManager struct {
	connections map[*Connection]bool
	closed      bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock
	metrics  MetricsCollector

	broadcastCh chan RenderFunc
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID        string
	Formatter countdown.Formatter
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock, metrics MetricsCollector) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}

	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       clock,
		metrics:     metrics,
		broadcastCh: make(chan RenderFunc, 64),
	}
}

// Start processes broadcasts until ctx is cancelled, then closes every connection
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			cm.closeAll()
			log.Info().Msg("connection manager shutting down")
			return
		case render := <-cm.broadcastCh:
			cm.handleBroadcast(render)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. When welcome is
// non-nil its event is queued before any broadcast reaches the connection.
// Once the manager is closed upgrades are refused with 503.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, formatter countdown.Formatter, welcome RenderFunc) error {
	if cm.isClosed() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return ErrManagerClosed
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	now := cm.clock.Now()
	connection := &Connection{
		ID:          uuid.New().String(),
		Formatter:   formatter,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: now,
	}

	if welcome != nil {
		if data, err := marshalRendered(welcome, formatter); err != nil {
			log.Error().Err(err).Msg("failed to render welcome event")
		} else {
			connection.Send <- data
		}
	}

	if !cm.registerConnection(connection) {
		conn.Close()
		return ErrManagerClosed
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("locale", string(formatter.Locale)).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) isClosed() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.closed
}

func (cm *ConnectionManager) registerConnection(conn *Connection) bool {
	cm.mu.Lock()
	if cm.closed {
		cm.mu.Unlock()
		return false
	}
	cm.connections[conn] = true
	total := len(cm.connections)
	cm.mu.Unlock()

	cm.metrics.RecordConnections(total)

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", total).
		Msg("connection registered")
	return true
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	if _, exists := cm.connections[conn]; !exists {
		cm.mu.Unlock()
		return
	}
	delete(cm.connections, conn)
	close(conn.Send)
	total := len(cm.connections)
	cm.mu.Unlock()

	cm.metrics.RecordConnections(total)

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	cm.closed = true
	for conn := range cm.connections {
		delete(cm.connections, conn)
		close(conn.Send)
	}
	cm.mu.Unlock()

	cm.metrics.RecordConnections(0)
}

// Broadcast queues an event for every connection
func (cm *ConnectionManager) Broadcast(render RenderFunc) {
	select {
	case cm.broadcastCh <- render:
	default:
		log.Warn().Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(render RenderFunc) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	// Render once per formatter
	rendered := make(map[countdown.Formatter][]byte)
	for _, conn := range targets {
		if _, ok := rendered[conn.Formatter]; ok {
			continue
		}
		data, err := marshalRendered(render, conn.Formatter)
		if err != nil {
			log.Error().Err(err).Msg("failed to render event for broadcast")
			return
		}
		rendered[conn.Formatter] = data
	}

	// Send channels are only closed under the write lock
	var slow []*Connection
	cm.mu.RLock()
	for _, conn := range targets {
		if !cm.connections[conn] {
			continue
		}
		select {
		case conn.Send <- rendered[conn.Formatter]:
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Int("connections", len(targets)).
		Int("variants", len(rendered)).
		Msg("event broadcasted")
}

func marshalRendered(render RenderFunc, f countdown.Formatter) ([]byte, error) {
	event, err := render(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// ConnectionStats summarises the open connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByLocale         map[string]int `json:"by_locale"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		TotalConnections: len(cm.connections),
		ByLocale:         make(map[string]int),
	}
	for conn := range cm.connections {
		stats.ByLocale[string(conn.Formatter.Locale)]++
	}
	return stats
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	clock := c.Manager.clock
	ticker := clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
