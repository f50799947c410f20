package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/arabcoders/contesthub/go/internal/contests"
)

// SnapshotPublisher forwards refreshed snapshots to downstream consumers
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot *contests.Snapshot) error
	Close() error
}

// NoOpPublisher is used when no message bus is configured
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, *contests.Snapshot) error { return nil }
func (NoOpPublisher) Close() error                                      { return nil }

type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
	MaxMsgs       int64
	Replicas      int
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "CONTEST_SNAPSHOTS",
		SubjectPrefix: "contests.snapshots",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		MaxAge:        24 * time.Hour,
		MaxMsgs:       10000,
		Replicas:      1,
	}
}

// SnapshotEnvelope is the JSON body of a published snapshot
type SnapshotEnvelope struct {
	EventID   string             `json:"eventId"`
	EventType string             `json:"eventType"`
	Timestamp time.Time          `json:"timestamp"`
	Counts    map[string]int     `json:"counts"`
	Snapshot  *contests.Snapshot `json:"snapshot"`
}

// SnapshotSubject is the subject refreshed snapshots are published on
func SnapshotSubject(prefix string) string {
	return prefix + ".refreshed"
}

// NewSnapshotEnvelope wraps a snapshot for publishing
func NewSnapshotEnvelope(snapshot *contests.Snapshot, now time.Time) SnapshotEnvelope {
	counts := make(map[string]int)
	for status, n := range contests.CountByStatus(snapshot.Contests) {
		counts[string(status)] = n
	}
	return SnapshotEnvelope{
		EventID:   uuid.New().String(),
		EventType: string(EventTypeContestsRefreshed),
		Timestamp: now.UTC(),
		Counts:    counts,
		Snapshot:  snapshot,
	}
}

type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	clock  clockwork.Clock
}

func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig, clock clockwork.Clock) (*JetStreamPublisher, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	opts := []nats.Option{
		nats.Name("contesthub"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg, clock: clock}

	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return p, nil
}

func (p *JetStreamPublisher) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Aggregated contest snapshots",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		MaxMsgs:     p.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    p.config.Replicas,
	}
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := p.streamConfig()

	stream, err := p.js.Stream(ctx, p.config.StreamName)
	if err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().
			Str("stream", p.config.StreamName).
			Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = p.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().
			Str("stream", p.config.StreamName).
			Msg("updated JetStream stream")
	}
	return nil
}

func (p *JetStreamPublisher) envelope(snapshot *contests.Snapshot) SnapshotEnvelope {
	return NewSnapshotEnvelope(snapshot, p.clock.Now())
}

func (p *JetStreamPublisher) Publish(ctx context.Context, snapshot *contests.Snapshot) error {
	subject := SnapshotSubject(p.config.SubjectPrefix)
	env := p.envelope(snapshot)

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{env.EventType},
			"Event-ID":   []string{env.EventID},
		},
	},
		jetstream.WithMsgID(env.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.EventID).
		Uint64("sequence", ack.Sequence).
		Int("contests", len(snapshot.Contests)).
		Msg("published snapshot to JetStream")

	return nil
}

// IsConnected reports whether the NATS connection is up
func (p *JetStreamPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas
}
