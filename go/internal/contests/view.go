package contests

import (
	"strings"
	"time"

	"github.com/arabcoders/contesthub/go/internal/countdown"
	"github.com/arabcoders/contesthub/go/internal/models"
)

// ContestView is a classified contest as served to clients, with its countdown
// rendered for the caller's locale and precision.
type ContestView struct {
	models.ClassifiedContest
	Countdown string `json:"countdown"`
}

// SnapshotView is the JSON body of GET /api/contests
type SnapshotView struct {
	Contests      []ContestView                `json:"contests"`
	Counts        map[models.ContestStatus]int `json:"counts"`
	FetchedAt     time.Time                    `json:"fetched_at"`
	Discrepancies []Discrepancy                `json:"discrepancies"`
}

// NewContestView renders one contest
func NewContestView(c models.ClassifiedContest, f countdown.Formatter, now time.Time) ContestView {
	return ContestView{ClassifiedContest: c, Countdown: f.FormatContest(c, now)}
}

// NewSnapshotView renders a snapshot after applying the status filter
func NewSnapshotView(s *Snapshot, statuses []models.ContestStatus, f countdown.Formatter, now time.Time) SnapshotView {
	filtered := FilterByStatus(s.Contests, statuses...)
	views := make([]ContestView, 0, len(filtered))
	for _, c := range filtered {
		views = append(views, NewContestView(c, f, now))
	}

	discrepancies := s.Discrepancies
	if discrepancies == nil {
		discrepancies = []Discrepancy{}
	}

	return SnapshotView{
		Contests:      views,
		Counts:        CountByStatus(filtered),
		FetchedAt:     s.FetchedAt,
		Discrepancies: discrepancies,
	}
}

// ParseStatuses parses a comma separated status filter. Empty input means all.
func ParseStatuses(raw string) ([]models.ContestStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var statuses []models.ContestStatus
	for _, part := range strings.Split(raw, ",") {
		s := models.ContestStatus(strings.ToLower(strings.TrimSpace(part)))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, &InvalidStatusError{Value: part}
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// InvalidStatusError is returned by ParseStatuses for unknown buckets
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return "invalid contest status: " + strings.TrimSpace(e.Value)
}
