package contests

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/arabcoders/contesthub/go/internal/countdown"
)

// LoadFailedMessage is the client-facing error for a failed aggregate. The
// upstream error is only logged.
const LoadFailedMessage = "failed to load contests"

// Service exposes the aggregated contests over HTTP
type Service struct {
	app           *App
	clock         clockwork.Clock
	defaultLocale countdown.Locale
	locales       map[countdown.Locale]bool
}

// ServiceOptions configures locale handling. An empty Locales list enables
// every supported locale.
type ServiceOptions struct {
	DefaultLocale countdown.Locale
	Locales       []countdown.Locale
}

// NewService creates a new contests HTTP service
func NewService(app *App, clock clockwork.Clock, opts ServiceOptions) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	locales := make(map[countdown.Locale]bool)
	for _, l := range opts.Locales {
		if l.Supported() {
			locales[l] = true
		}
	}
	if len(locales) == 0 {
		for _, l := range countdown.SupportedLocales() {
			locales[l] = true
		}
	}

	def := opts.DefaultLocale
	if !locales[def] {
		def = countdown.LocaleEnglish
	}

	return &Service{
		app:           app,
		clock:         clock,
		defaultLocale: def,
		locales:       locales,
	}
}

// RegisterRoutes registers the contest routes on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/contests", s.HandleListContests)
	mux.HandleFunc("GET /api/contests/{id}", s.HandleGetContest)
}

// Formatter picks the countdown formatter for a request's lang and precision
// query parameters. Disabled locales fall back to the default.
func (s *Service) Formatter(r *http.Request) countdown.Formatter {
	q := r.URL.Query()

	locale := s.defaultLocale
	if lang := q.Get("lang"); lang != "" {
		if l := countdown.ParseLocale(lang); s.locales[l] {
			locale = l
		}
	}
	return countdown.NewFormatter(locale, countdown.ParsePrecision(q.Get("precision")))
}

// HandleListContests handles GET /api/contests
func (s *Service) HandleListContests(w http.ResponseWriter, r *http.Request) {
	statuses, err := ParseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.app.Aggregate(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to aggregate contests")
		writeError(w, http.StatusBadGateway, LoadFailedMessage)
		return
	}

	writeJSON(w, http.StatusOK, NewSnapshotView(snapshot, statuses, s.Formatter(r), s.clock.Now()))
}

// HandleGetContest handles GET /api/contests/{id}
func (s *Service) HandleGetContest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid contest id")
		return
	}

	contest, err := s.app.GetContest(r.Context(), id)
	if errors.Is(err, ErrContestNotFound) {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("contest_id", id).Msg("failed to get contest")
		writeError(w, http.StatusBadGateway, LoadFailedMessage)
		return
	}

	writeJSON(w, http.StatusOK, NewContestView(*contest, s.Formatter(r), s.clock.Now()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
