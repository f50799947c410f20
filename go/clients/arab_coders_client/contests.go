package arab_coders_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arabcoders/contesthub/go/internal/models"
)

// ErrUnexpectedShape is returned when a list body is neither an array nor an
// object wrapping one.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// wrapperKeys are tried in order when a list endpoint wraps its array in an object.
var wrapperKeys = []string{"data", "contests", "items", "results"}

// Field aliases seen across the API's endpoints. The first present key wins.
var (
	idKeys         = []string{"id", "contestId", "contest_id"}
	nameKeys       = []string{"name", "title", "contestName"}
	startKeys      = []string{"startTime", "start_time", "startDate", "start"}
	endKeys        = []string{"endTime", "end_time", "endDate", "end"}
	createdByKeys  = []string{"createdByName", "created_by_name", "createdBy", "creatorName"}
	imageKeys      = []string{"imageUrl", "image_url", "image", "coverImage"}
	locationKeys   = []string{"location", "venue"}
	prizesKeys     = []string{"prizes", "prize"}
	termsKeys      = []string{"termsAndConditions", "terms_and_conditions", "terms"}
	difficultyKeys = []string{"difficultyLevel", "difficulty_level", "difficulty"}
	universityKeys = []string{"universityName", "university_name", "university"}
	problemsKeys   = []string{"problems", "problemList"}
)

// timeLayouts are tried in order when parsing remote timestamps
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (c *ArabCodersClient) ListSoonContests(ctx context.Context) ([]models.ContestRecord, error) {
	return c.listContests(ctx, c.endpoints.Soon)
}

func (c *ArabCodersClient) ListRunningContests(ctx context.Context) ([]models.ContestRecord, error) {
	return c.listContests(ctx, c.endpoints.Running)
}

func (c *ArabCodersClient) ListEndedContests(ctx context.Context) ([]models.ContestRecord, error) {
	return c.listContests(ctx, c.endpoints.Ended)
}

// GetContest fetches a single contest for detail views
func (c *ArabCodersClient) GetContest(ctx context.Context, id int) (*models.ContestRecord, error) {
	endpoint := fmt.Sprintf("%s/%d", c.endpoints.Detail, id)
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get contest %d: %w", id, err)
	}

	fields, err := unwrapObject(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode contest %d: %w", id, err)
	}

	record := recordFromFields(fields)
	return &record, nil
}

func (c *ArabCodersClient) listContests(ctx context.Context, endpoint string) ([]models.ContestRecord, error) {
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests from %s: %w", endpoint, err)
	}

	records, err := DecodeContestList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode contests from %s: %w", endpoint, err)
	}
	return records, nil
}

// DecodeContestList decodes a JSON array of contests, or an object wrapping one
// under one of the wrapper keys.
func DecodeContestList(body []byte) ([]models.ContestRecord, error) {
	raw, err := unwrapArray(body, 0)
	if err != nil {
		return nil, err
	}

	records := make([]models.ContestRecord, 0, len(raw))
	for _, item := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			// Non-object entries carry nothing renderable
			continue
		}
		records = append(records, recordFromFields(fields))
	}
	return records, nil
}

func unwrapArray(body []byte, depth int) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrUnexpectedShape
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("unmarshal array: %w", err)
		}
		return items, nil
	case '{':
		if depth > 1 {
			return nil, ErrUnexpectedShape
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("unmarshal object: %w", err)
		}
		for _, key := range wrapperKeys {
			if inner, ok := obj[key]; ok {
				return unwrapArray(inner, depth+1)
			}
		}
		return nil, ErrUnexpectedShape
	case 'n':
		// null list means an empty bucket
		if string(trimmed) == "null" {
			return nil, nil
		}
	}
	return nil, ErrUnexpectedShape
}

// unwrapObject decodes a single contest, possibly wrapped under "data" or "contest".
func unwrapObject(body []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	for _, key := range []string{"data", "contest"} {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(inner, &nested); err == nil {
			return nested, nil
		}
	}
	return obj, nil
}

func recordFromFields(fields map[string]json.RawMessage) models.ContestRecord {
	record := models.ContestRecord{
		ID:                 intField(fields, idKeys),
		Name:               stringField(fields, nameKeys),
		RawStartTime:       stringField(fields, startKeys),
		RawEndTime:         stringField(fields, endKeys),
		CreatedByName:      creatorField(fields),
		ImageURL:           stringField(fields, imageKeys),
		Location:           stringField(fields, locationKeys),
		Prizes:             stringListField(fields, prizesKeys),
		TermsAndConditions: stringField(fields, termsKeys),
		DifficultyLevel:    stringField(fields, difficultyKeys),
		UniversityName:     universityField(fields),
		Problems:           problemsField(fields),
	}
	record.StartTime = ParseTimestamp(record.RawStartTime)
	record.EndTime = ParseTimestamp(record.RawEndTime)
	return record
}

// ParseTimestamp parses an ISO-8601 timestamp. Timestamps without a zone are
// read as UTC. Unparsable input returns the zero time.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		if v, ok := fields[key]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func stringField(fields map[string]json.RawMessage, keys []string) string {
	v, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	return rawToString(v)
}

func rawToString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func intField(fields map[string]json.RawMessage, keys []string) int {
	v, ok := lookup(fields, keys)
	if !ok {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i
		}
	}
	return 0
}

func stringListField(fields map[string]json.RawMessage, keys []string) string {
	v, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := rawToString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return rawToString(v)
}

// creatorField accepts either a flat name or a nested user object.
func creatorField(fields map[string]json.RawMessage) string {
	if name := stringField(fields, createdByKeys); name != "" {
		return name
	}
	return nestedName(fields, []string{"createdBy", "creator", "user"})
}

func universityField(fields map[string]json.RawMessage) string {
	if name := stringField(fields, universityKeys); name != "" {
		return name
	}
	return nestedName(fields, []string{"university"})
}

func nestedName(fields map[string]json.RawMessage, keys []string) string {
	v, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(v, &nested); err != nil {
		return ""
	}
	return stringField(nested, []string{"name", "fullName", "username"})
}

func problemsField(fields map[string]json.RawMessage) []models.ProblemSummary {
	problems := []models.ProblemSummary{}
	v, ok := lookup(fields, problemsKeys)
	if !ok {
		return problems
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(v, &list); err != nil {
		return problems
	}
	for _, p := range list {
		problems = append(problems, models.ProblemSummary{
			ID:    intField(p, []string{"id", "problemId"}),
			Title: stringField(p, []string{"title", "name"}),
		})
	}
	return problems
}
