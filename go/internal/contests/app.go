package contests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/arabcoders/contesthub/go/internal/models"
)

// ErrContestNotFound is returned when an ID is absent from every bucket
var ErrContestNotFound = errors.New("contest not found")

// ContestFetcher defines what the app layer needs from the remote API client
type ContestFetcher interface {
	ListSoonContests(ctx context.Context) ([]models.ContestRecord, error)
	ListRunningContests(ctx context.Context) ([]models.ContestRecord, error)
	ListEndedContests(ctx context.Context) ([]models.ContestRecord, error)
}

// ContestDetailFetcher is implemented by fetchers that can load the full
// record of a single contest
type ContestDetailFetcher interface {
	GetContest(ctx context.Context, id int) (*models.ContestRecord, error)
}

// MetricsCollector receives fetch and aggregation outcomes
type MetricsCollector interface {
	RecordFetch(bucket models.ContestStatus, success bool, duration time.Duration)
	RecordAggregate(counts map[models.ContestStatus]int, discrepancies int)
}

// NoOpMetricsCollector is used when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordFetch(models.ContestStatus, bool, time.Duration) {}
func (NoOpMetricsCollector) RecordAggregate(map[models.ContestStatus]int, int)     {}

// Snapshot is the result of one fetch-and-aggregate cycle
type Snapshot struct {
	Contests      []models.ClassifiedContest `json:"contests"`
	FetchedAt     time.Time                  `json:"fetched_at"`
	Discrepancies []Discrepancy              `json:"discrepancies"`
}

// App handles contest aggregation. It keeps no state between calls.
type App struct {
	fetcher ContestFetcher
	clock   clockwork.Clock
	metrics MetricsCollector
}

// NewApp creates a new contests App
func NewApp(fetcher ContestFetcher, clock clockwork.Clock, metrics MetricsCollector) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &App{
		fetcher: fetcher,
		clock:   clock,
		metrics: metrics,
	}
}

// Aggregate fetches the three buckets concurrently and merges them. If any
// fetch fails no aggregate is produced and the first error is returned.
func (a *App) Aggregate(ctx context.Context) (*Snapshot, error) {
	var soon, running, ended []models.ContestRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		soon, err = a.fetchBucket(gctx, models.ContestStatusSoon, a.fetcher.ListSoonContests)
		return err
	})
	g.Go(func() (err error) {
		running, err = a.fetchBucket(gctx, models.ContestStatusRunning, a.fetcher.ListRunningContests)
		return err
	})
	g.Go(func() (err error) {
		ended, err = a.fetchBucket(gctx, models.ContestStatusEnded, a.fetcher.ListEndedContests)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	contests := Aggregate(soon, running, ended)
	discrepancies := DetectStaleness(contests, now)

	for _, d := range discrepancies {
		log.Warn().
			Int("contest_id", d.ContestID).
			Str("reported_status", string(d.ReportedStatus)).
			Str("local_status", string(d.LocalStatus)).
			Msg("contest status disagrees with its timestamps")
	}

	a.metrics.RecordAggregate(CountByStatus(contests), len(discrepancies))

	log.Debug().
		Int("soon", len(soon)).
		Int("running", len(running)).
		Int("ended", len(ended)).
		Int("aggregated", len(contests)).
		Msg("contests aggregated")

	return &Snapshot{
		Contests:      contests,
		FetchedAt:     now,
		Discrepancies: discrepancies,
	}, nil
}

// GetContest aggregates and returns the contest with the given ID. When the
// fetcher supports detail lookups the display fields are filled from the
// detail record; the aggregated status and times are kept.
func (a *App) GetContest(ctx context.Context, id int) (*models.ClassifiedContest, error) {
	snapshot, err := a.Aggregate(ctx)
	if err != nil {
		return nil, err
	}

	contest, ok := FindByID(snapshot.Contests, id)
	if !ok {
		return nil, fmt.Errorf("contest %d: %w", id, ErrContestNotFound)
	}

	if detailer, ok := a.fetcher.(ContestDetailFetcher); ok {
		detail, err := detailer.GetContest(ctx, id)
		if err != nil {
			log.Warn().Err(err).Int("contest_id", id).Msg("failed to load contest detail, serving list record")
		} else {
			mergeDetail(&contest.ContestRecord, detail)
		}
	}
	return &contest, nil
}

func mergeDetail(dst *models.ContestRecord, detail *models.ContestRecord) {
	if detail == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&dst.Name, detail.Name)
	fill(&dst.CreatedByName, detail.CreatedByName)
	fill(&dst.ImageURL, detail.ImageURL)
	fill(&dst.Location, detail.Location)
	fill(&dst.Prizes, detail.Prizes)
	fill(&dst.TermsAndConditions, detail.TermsAndConditions)
	fill(&dst.DifficultyLevel, detail.DifficultyLevel)
	fill(&dst.UniversityName, detail.UniversityName)
	if len(detail.Problems) > 0 {
		dst.Problems = detail.Problems
	}
}

func (a *App) fetchBucket(
	ctx context.Context,
	bucket models.ContestStatus,
	fetch func(context.Context) ([]models.ContestRecord, error),
) ([]models.ContestRecord, error) {
	start := a.clock.Now()
	records, err := fetch(ctx)
	a.metrics.RecordFetch(bucket, err == nil, a.clock.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s contests: %w", bucket, err)
	}
	return records, nil
}
