package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arabcoders/contesthub/go/internal/contests"
	"github.com/arabcoders/contesthub/go/internal/countdown"
	"github.com/arabcoders/contesthub/go/internal/models"
)

// Event is the envelope of every message pushed to WebSocket clients
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of gateway event
type EventType string

const (
	EventTypeContestsRefreshed     EventType = "ContestsRefreshed"
	EventTypeContestsRefreshFailed EventType = "ContestsRefreshFailed"
	EventTypeCountdownTick         EventType = "CountdownTick"
)

// ContestsRefreshFailedPayload is sent when a refresh fails. Clients keep
// showing the previous snapshot.
type ContestsRefreshFailedPayload struct {
	Error         string     `json:"error"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
}

// CountdownEntry is the remaining time of one non-ended contest
type CountdownEntry struct {
	ContestID int                  `json:"contest_id"`
	Name      string               `json:"name"`
	Status    models.ContestStatus `json:"status"`
	Countdown string               `json:"countdown"`
	Remaining countdown.Remaining  `json:"remaining"`
}

// CountdownTickPayload carries every running and upcoming countdown for one tick
type CountdownTickPayload struct {
	TickedAt   time.Time        `json:"ticked_at"`
	Countdowns []CountdownEntry `json:"countdowns"`
}

// RenderFunc builds an event for one formatter. Broadcasts render once per
// distinct formatter among the connected clients.
type RenderFunc func(f countdown.Formatter) (*Event, error)

func newEvent(eventType EventType, payload any, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: now.UTC(),
		Data:      data,
	}, nil
}

func refreshedRenderer(snapshot *contests.Snapshot, now time.Time) RenderFunc {
	return func(f countdown.Formatter) (*Event, error) {
		return newEvent(EventTypeContestsRefreshed, contests.NewSnapshotView(snapshot, nil, f, now), now)
	}
}

func refreshFailedRenderer(last *contests.Snapshot, now time.Time) RenderFunc {
	payload := ContestsRefreshFailedPayload{Error: contests.LoadFailedMessage}
	if last != nil {
		fetchedAt := last.FetchedAt
		payload.LastFetchedAt = &fetchedAt
	}
	return func(countdown.Formatter) (*Event, error) {
		return newEvent(EventTypeContestsRefreshFailed, payload, now)
	}
}

func tickRenderer(snapshot *contests.Snapshot, now time.Time) RenderFunc {
	return func(f countdown.Formatter) (*Event, error) {
		payload := CountdownTickPayload{TickedAt: now.UTC(), Countdowns: []CountdownEntry{}}
		for _, c := range snapshot.Contests {
			target, ok := countdown.TargetFor(c)
			if !ok {
				continue
			}
			payload.Countdowns = append(payload.Countdowns, CountdownEntry{
				ContestID: c.ID,
				Name:      c.Name,
				Status:    c.Status,
				Countdown: f.Format(target, now),
				Remaining: countdown.Breakdown(target, now),
			})
		}
		return newEvent(EventTypeCountdownTick, payload, now)
	}
}

// ParseEventPayload decodes the data of a known event type
func ParseEventPayload(event *Event) (any, error) {
	switch event.Type {
	case EventTypeContestsRefreshed:
		var payload contests.SnapshotView
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeContestsRefreshFailed:
		var payload ContestsRefreshFailedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeCountdownTick:
		var payload CountdownTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil
	}
}
