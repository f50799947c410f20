package contests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/arabcoders/contesthub/go/internal/models"
)

func rec(id int, name string) models.ContestRecord {
	return models.ContestRecord{ID: id, Name: name}
}

func statusByID(contests []models.ClassifiedContest) map[int]models.ContestStatus {
	out := make(map[int]models.ContestStatus, len(contests))
	for _, c := range contests {
		out[c.ID] = c.Status
	}
	return out
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	soon := []models.ContestRecord{rec(1, "soon-1")}
	running := []models.ContestRecord{rec(2, "running-2"), rec(1, "running-1")}
	ended := []models.ContestRecord{rec(3, "ended-3")}

	got := Aggregate(soon, running, ended)

	require.Len(t, got, 3)
	assert.Equal(t, map[int]models.ContestStatus{
		1: models.ContestStatusRunning,
		2: models.ContestStatusRunning,
		3: models.ContestStatusEnded,
	}, statusByID(got))

	// ended first, then soon, then running; replacement keeps position
	assert.Equal(t, []int{3, 1, 2}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "running-1", got[1].Name, "whole record comes from the winning bucket")
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil, []models.ContestRecord{}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregate_Priority(t *testing.T) {
	tests := []struct {
		name    string
		soon    []models.ContestRecord
		running []models.ContestRecord
		ended   []models.ContestRecord
		want    models.ContestStatus
		wantSrc string
	}{
		{
			name:    "running beats soon",
			soon:    []models.ContestRecord{rec(1, "s")},
			running: []models.ContestRecord{rec(1, "r")},
			want:    models.ContestStatusRunning,
			wantSrc: "r",
		},
		{
			name:    "running beats all",
			soon:    []models.ContestRecord{rec(1, "s")},
			running: []models.ContestRecord{rec(1, "r")},
			ended:   []models.ContestRecord{rec(1, "e")},
			want:    models.ContestStatusRunning,
			wantSrc: "r",
		},
		{
			name:    "soon beats ended",
			soon:    []models.ContestRecord{rec(1, "s")},
			ended:   []models.ContestRecord{rec(1, "e")},
			want:    models.ContestStatusSoon,
			wantSrc: "s",
		},
		{
			name:    "running beats ended",
			running: []models.ContestRecord{rec(1, "r")},
			ended:   []models.ContestRecord{rec(1, "e")},
			want:    models.ContestStatusRunning,
			wantSrc: "r",
		},
		{
			name:    "duplicate within a bucket keeps first",
			soon:    []models.ContestRecord{rec(1, "first"), rec(1, "second")},
			want:    models.ContestStatusSoon,
			wantSrc: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.soon, tt.running, tt.ended)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Status)
			assert.Equal(t, tt.wantSrc, got[0].Name)
		})
	}
}

func TestAggregate_MissingIDsPassThrough(t *testing.T) {
	soon := []models.ContestRecord{rec(0, "a"), rec(0, "b")}
	running := []models.ContestRecord{rec(0, "c")}

	got := Aggregate(soon, running, nil)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	soon := []models.ContestRecord{rec(1, "s")}
	running := []models.ContestRecord{rec(1, "r")}

	_ = Aggregate(soon, running, nil)

	assert.Equal(t, "s", soon[0].Name)
	assert.Equal(t, "r", running[0].Name)
}

func drawBucket(t *rapid.T, label string) []models.ContestRecord {
	ids := rapid.SliceOfNDistinct(rapid.IntRange(1, 30), 0, 15, rapid.ID[int]).Draw(t, label)
	records := make([]models.ContestRecord, len(ids))
	for i, id := range ids {
		records[i] = rec(id, label)
	}
	return records
}

func TestAggregate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		soon := drawBucket(t, "soon")
		running := drawBucket(t, "running")
		ended := drawBucket(t, "ended")

		got := Aggregate(soon, running, ended)

		reported := map[int][]models.ContestStatus{}
		for _, r := range soon {
			reported[r.ID] = append(reported[r.ID], models.ContestStatusSoon)
		}
		for _, r := range running {
			reported[r.ID] = append(reported[r.ID], models.ContestStatusRunning)
		}
		for _, r := range ended {
			reported[r.ID] = append(reported[r.ID], models.ContestStatusEnded)
		}

		if len(got) > len(soon)+len(running)+len(ended) {
			t.Fatalf("output longer than inputs: %d", len(got))
		}

		// every id exactly once
		seen := map[int]int{}
		for _, c := range got {
			seen[c.ID]++
		}
		if len(seen) != len(reported) {
			t.Fatalf("got %d distinct ids, want %d", len(seen), len(reported))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("id %d appears %d times", id, n)
			}
		}

		// status is the highest-priority reporting bucket, record taken from it
		for _, c := range got {
			best := reported[c.ID][0]
			for _, s := range reported[c.ID][1:] {
				if s.Priority() > best.Priority() {
					best = s
				}
			}
			if c.Status != best {
				t.Fatalf("id %d: status %s, want %s", c.ID, c.Status, best)
			}
			if c.Name != string(best) {
				t.Fatalf("id %d: record from %s, want %s", c.ID, c.Name, best)
			}
		}
	})
}

func TestAggregate_DisjointPassThrough(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.IntRange(1, 1000), 0, 30, rapid.ID[int]).Draw(t, "ids")
		a := rapid.IntRange(0, len(ids)).Draw(t, "a")
		b := rapid.IntRange(a, len(ids)).Draw(t, "b")

		toRecords := func(ids []int) []models.ContestRecord {
			out := make([]models.ContestRecord, len(ids))
			for i, id := range ids {
				out[i] = rec(id, "")
			}
			return out
		}
		soon, running, ended := toRecords(ids[:a]), toRecords(ids[a:b]), toRecords(ids[b:])

		got := Aggregate(soon, running, ended)
		if len(got) != len(ids) {
			t.Fatalf("len %d, want %d", len(got), len(ids))
		}

		statuses := statusByID(got)
		for _, id := range ids[:a] {
			if statuses[id] != models.ContestStatusSoon {
				t.Fatalf("id %d: %s, want soon", id, statuses[id])
			}
		}
		for _, id := range ids[a:b] {
			if statuses[id] != models.ContestStatusRunning {
				t.Fatalf("id %d: %s, want running", id, statuses[id])
			}
		}
		for _, id := range ids[b:] {
			if statuses[id] != models.ContestStatusEnded {
				t.Fatalf("id %d: %s, want ended", id, statuses[id])
			}
		}
	})
}

func TestFilterByStatus(t *testing.T) {
	contests := Aggregate(
		[]models.ContestRecord{rec(1, "")},
		[]models.ContestRecord{rec(2, "")},
		[]models.ContestRecord{rec(3, "")},
	)

	assert.Len(t, FilterByStatus(contests), 3)

	running := FilterByStatus(contests, models.ContestStatusRunning)
	require.Len(t, running, 1)
	assert.Equal(t, 2, running[0].ID)

	assert.Len(t, FilterByStatus(contests, models.ContestStatusSoon, models.ContestStatusEnded), 2)
}

func TestFindByID(t *testing.T) {
	contests := Aggregate([]models.ContestRecord{rec(1, "x"), rec(0, "anon")}, nil, nil)

	c, ok := FindByID(contests, 1)
	require.True(t, ok)
	assert.Equal(t, "x", c.Name)

	_, ok = FindByID(contests, 0)
	assert.False(t, ok)

	_, ok = FindByID(contests, 99)
	assert.False(t, ok)
}

func TestCountByStatus(t *testing.T) {
	contests := Aggregate(
		[]models.ContestRecord{rec(1, ""), rec(2, "")},
		[]models.ContestRecord{rec(2, "")},
		nil,
	)

	assert.Equal(t, map[models.ContestStatus]int{
		models.ContestStatusSoon:    1,
		models.ContestStatusRunning: 1,
		models.ContestStatusEnded:   0,
	}, CountByStatus(contests))
}
