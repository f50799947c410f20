package models

import (
	"time"
)

// ContestStatus is the bucket a contest was reported under by the remote service.
type ContestStatus string

const (
	ContestStatusSoon    ContestStatus = "soon"
	ContestStatusRunning ContestStatus = "running"
	ContestStatusEnded   ContestStatus = "ended"
)

// statusPriority decides which bucket wins when one contest is reported twice.
var statusPriority = map[ContestStatus]int{
	ContestStatusRunning: 3,
	ContestStatusSoon:    2,
	ContestStatusEnded:   1,
}

// Priority returns the tie-break weight of the status. Unknown statuses weigh 0.
func (s ContestStatus) Priority() int {
	return statusPriority[s]
}

// Valid reports whether s is one of the three known buckets.
func (s ContestStatus) Valid() bool {
	_, ok := statusPriority[s]
	return ok
}

// AllContestStatuses lists the buckets in display order.
func AllContestStatuses() []ContestStatus {
	return []ContestStatus{ContestStatusRunning, ContestStatusSoon, ContestStatusEnded}
}

// ProblemSummary is the display-only view of a problem attached to a contest.
type ProblemSummary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// ContestRecord represents one contest as returned by the remote service.
// An ID of 0 means the remote record carried no identifier.
// A zero StartTime/EndTime means the remote timestamp was missing or unparsable;
// the original text is kept in RawStartTime/RawEndTime.
type ContestRecord struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	RawStartTime  string    `json:"-"`
	RawEndTime    string    `json:"-"`
	CreatedByName string    `json:"created_by_name"`

	// Display payload, never interpreted by aggregation
	ImageURL           string           `json:"image_url"`
	Location           string           `json:"location"`
	Prizes             string           `json:"prizes"`
	TermsAndConditions string           `json:"terms_and_conditions"`
	DifficultyLevel    string           `json:"difficulty_level"`
	UniversityName     string           `json:"university_name"`
	Problems           []ProblemSummary `json:"problems"`
}

// HasID reports whether the record carried an identifier.
func (c ContestRecord) HasID() bool {
	return c.ID != 0
}

// ClassifiedContest is a ContestRecord tagged with the bucket that reported it.
type ClassifiedContest struct {
	ContestRecord
	Status ContestStatus `json:"status"`
}
