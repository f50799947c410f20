package countdown

import (
	"strconv"
	"strings"
	"time"

	"github.com/arabcoders/contesthub/go/internal/models"
)

// Unit is one component of a countdown, largest first
type Unit int

const (
	UnitDays Unit = iota
	UnitHours
	UnitMinutes
	UnitSeconds
)

// Precision is the most specific unit a view shows
type Precision = Unit

const (
	PrecisionMinutes Precision = UnitMinutes
	PrecisionSeconds Precision = UnitSeconds
)

// ParsePrecision maps "seconds"/"s" to PrecisionSeconds; anything else is minutes
func ParsePrecision(s string) Precision {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seconds", "second", "s", "sec":
		return PrecisionSeconds
	default:
		return PrecisionMinutes
	}
}

// Remaining is a duration split into whole units, each truncated
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Breakdown splits target-now into days, hours, minutes and seconds using
// integer truncation. A target at or before now yields all zeros.
func Breakdown(target, now time.Time) Remaining {
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{}
	}
	total := int64(d / time.Second)
	return Remaining{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func (r Remaining) value(u Unit) int {
	switch u {
	case UnitDays:
		return r.Days
	case UnitHours:
		return r.Hours
	case UnitMinutes:
		return r.Minutes
	default:
		return r.Seconds
	}
}

// Formatter renders countdowns for one locale and precision. The zero value
// formats English days/hours/minutes.
type Formatter struct {
	Locale    Locale
	Precision Precision
}

// NewFormatter creates a Formatter, normalising unsupported locales to English
func NewFormatter(locale Locale, precision Precision) Formatter {
	if !locale.Supported() {
		locale = LocaleEnglish
	}
	if precision < UnitMinutes || precision > UnitSeconds {
		precision = PrecisionMinutes
	}
	return Formatter{Locale: locale, Precision: precision}
}

// Format returns the time left until target. A zero target is treated as an
// unparsable date.
func (f Formatter) Format(target, now time.Time) string {
	if target.IsZero() {
		return f.Locale.InvalidDateSentinel()
	}
	if !target.After(now) {
		return f.Locale.EndedSentinel()
	}

	ls := f.Locale.strings()

	precision := f.Precision
	if precision < UnitMinutes {
		precision = PrecisionMinutes
	}

	r := Breakdown(target, now)
	parts := make([]string, 0, 4)
	for u := UnitDays; u <= precision; u++ {
		parts = append(parts, ls.format(r.value(u), u))
	}
	return strings.Join(parts, ls.separator)
}

// FormatRaw parses an ISO-8601 target and formats it
func (f Formatter) FormatRaw(raw string, now time.Time) string {
	target, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return f.Locale.InvalidDateSentinel()
	}
	return f.Format(target, now)
}

// FormatRemaining renders days, hours and minutes until target in English
func FormatRemaining(target, now time.Time) string {
	return Formatter{}.Format(target, now)
}

// TargetFor returns the instant a contest counts down to: the end for running
// contests, the start for upcoming ones. Ended contests have no target and
// report ok=false.
func TargetFor(c models.ClassifiedContest) (target time.Time, ok bool) {
	switch c.Status {
	case models.ContestStatusRunning:
		return c.EndTime, true
	case models.ContestStatusSoon:
		return c.StartTime, true
	default:
		return time.Time{}, false
	}
}

// FormatContest formats the countdown appropriate for the contest's status
func (f Formatter) FormatContest(c models.ClassifiedContest, now time.Time) string {
	target, ok := TargetFor(c)
	if !ok {
		return f.Locale.EndedSentinel()
	}
	return f.Format(target, now)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
