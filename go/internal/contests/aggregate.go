package contests

import (
	"github.com/arabcoders/contesthub/go/internal/models"
)

// Aggregate merges the three bucketed lists into one de-duplicated sequence.
//
// Records are tagged with the bucket they came from and walked in the order
// ended, soon, running. The first record seen for an ID fixes its position;
// a later record for the same ID replaces it only when its status has strictly
// higher priority (running > soon > ended). Records without an ID are never
// de-duplicated.
func Aggregate(soon, running, ended []models.ContestRecord) []models.ClassifiedContest {
	tagged := make([]models.ClassifiedContest, 0, len(soon)+len(running)+len(ended))
	tagged = appendTagged(tagged, ended, models.ContestStatusEnded)
	tagged = appendTagged(tagged, soon, models.ContestStatusSoon)
	tagged = appendTagged(tagged, running, models.ContestStatusRunning)

	result := make([]models.ClassifiedContest, 0, len(tagged))
	positions := make(map[int]int, len(tagged))

	for _, contest := range tagged {
		if !contest.HasID() {
			result = append(result, contest)
			continue
		}

		pos, seen := positions[contest.ID]
		if !seen {
			positions[contest.ID] = len(result)
			result = append(result, contest)
			continue
		}

		if contest.Status.Priority() > result[pos].Status.Priority() {
			result[pos] = contest
		}
	}

	return result
}

func appendTagged(dst []models.ClassifiedContest, records []models.ContestRecord, status models.ContestStatus) []models.ClassifiedContest {
	for _, record := range records {
		dst = append(dst, models.ClassifiedContest{ContestRecord: record, Status: status})
	}
	return dst
}

// FilterByStatus keeps contests whose status is one of statuses, preserving order.
// No statuses means no filtering.
func FilterByStatus(contests []models.ClassifiedContest, statuses ...models.ContestStatus) []models.ClassifiedContest {
	if len(statuses) == 0 {
		return contests
	}

	wanted := make(map[models.ContestStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	filtered := make([]models.ClassifiedContest, 0, len(contests))
	for _, c := range contests {
		if wanted[c.Status] {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FindByID returns the contest with the given ID, if present
func FindByID(contests []models.ClassifiedContest, id int) (models.ClassifiedContest, bool) {
	if id == 0 {
		return models.ClassifiedContest{}, false
	}
	for _, c := range contests {
		if c.ID == id {
			return c, true
		}
	}
	return models.ClassifiedContest{}, false
}

// CountByStatus tallies contests per bucket. Every bucket is present in the result.
func CountByStatus(contests []models.ClassifiedContest) map[models.ContestStatus]int {
	counts := make(map[models.ContestStatus]int, 3)
	for _, s := range models.AllContestStatuses() {
		counts[s] = 0
	}
	for _, c := range contests {
		counts[c.Status]++
	}
	return counts
}
