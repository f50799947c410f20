package contests

import (
	"time"

	"github.com/arabcoders/contesthub/go/internal/models"
)

// Discrepancy flags a contest whose reported bucket disagrees with its timestamps.
// The reported status stays authoritative; this is informational only.
type Discrepancy struct {
	ContestID      int                  `json:"contest_id"`
	Name           string               `json:"name"`
	ReportedStatus models.ContestStatus `json:"reported_status"`
	LocalStatus    models.ContestStatus `json:"local_status"`
}

// LocalStatus derives a status from the contest's own timestamps. ok is false
// when either timestamp is missing.
func LocalStatus(c models.ContestRecord, now time.Time) (status models.ContestStatus, ok bool) {
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		return "", false
	}
	switch {
	case now.Before(c.StartTime):
		return models.ContestStatusSoon, true
	case now.Before(c.EndTime):
		return models.ContestStatusRunning, true
	default:
		return models.ContestStatusEnded, true
	}
}

// DetectStaleness reports contests whose reported status differs from the one
// their timestamps imply at now.
func DetectStaleness(contests []models.ClassifiedContest, now time.Time) []Discrepancy {
	discrepancies := []Discrepancy{}
	for _, c := range contests {
		local, ok := LocalStatus(c.ContestRecord, now)
		if !ok || local == c.Status {
			continue
		}
		discrepancies = append(discrepancies, Discrepancy{
			ContestID:      c.ID,
			Name:           c.Name,
			ReportedStatus: c.Status,
			LocalStatus:    local,
		})
	}
	return discrepancies
}
