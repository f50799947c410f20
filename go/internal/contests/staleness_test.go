package contests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arabcoders/contesthub/go/internal/models"
)

func TestLocalStatus(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	record := models.ContestRecord{ID: 1, StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want models.ContestStatus
	}{
		{"before start", start.Add(-time.Minute), models.ContestStatusSoon},
		{"at start", start, models.ContestStatusRunning},
		{"mid contest", start.Add(time.Hour), models.ContestStatusRunning},
		{"at end", end, models.ContestStatusEnded},
		{"after end", end.Add(time.Hour), models.ContestStatusEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LocalStatus(record, tt.now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := LocalStatus(models.ContestRecord{StartTime: start}, start)
	assert.False(t, ok, "missing end time")
}

func TestDetectStaleness(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	contests := []models.ClassifiedContest{
		{
			// still reported soon although it started an hour ago
			ContestRecord: models.ContestRecord{ID: 1, Name: "late", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
			Status:        models.ContestStatusSoon,
		},
		{
			ContestRecord: models.ContestRecord{ID: 2, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
			Status:        models.ContestStatusRunning,
		},
		{
			ContestRecord: models.ContestRecord{ID: 3},
			Status:        models.ContestStatusEnded,
		},
	}

	got := DetectStaleness(contests, now)
	require.Len(t, got, 1)
	assert.Equal(t, Discrepancy{
		ContestID:      1,
		Name:           "late",
		ReportedStatus: models.ContestStatusSoon,
		LocalStatus:    models.ContestStatusRunning,
	}, got[0])

	assert.NotNil(t, DetectStaleness(nil, now))
}
