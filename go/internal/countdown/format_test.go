package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/arabcoders/contesthub/go/internal/models"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBreakdown_Truncates(t *testing.T) {
	target := time.Date(2024, 1, 2, 1, 30, 45, 0, time.UTC)

	r := Breakdown(target, epoch)

	assert.Equal(t, Remaining{Days: 1, Hours: 1, Minutes: 30, Seconds: 45}, r)
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name   string
		target time.Time
		want   string
	}{
		{name: "day hour minute", target: time.Date(2024, 1, 2, 1, 30, 45, 0, time.UTC), want: "1d 1h 30m"},
		{name: "leading zeros kept", target: epoch.Add(5 * time.Minute), want: "0d 0h 5m"},
		{name: "under a minute", target: epoch.Add(59 * time.Second), want: "0d 0h 0m"},
		{name: "equal is ended", target: epoch, want: "Ended"},
		{name: "past is ended", target: epoch.Add(-time.Hour), want: "Ended"},
		{name: "zero is invalid", target: time.Time{}, want: "Invalid date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRemaining(tt.target, epoch))
		})
	}
}

func TestFormatter_Seconds(t *testing.T) {
	f := NewFormatter(LocaleEnglish, PrecisionSeconds)
	got := f.Format(time.Date(2024, 1, 2, 1, 30, 45, 900, time.UTC), epoch)
	assert.Equal(t, "1d 1h 30m 45s", got)
}

func TestFormatter_Arabic(t *testing.T) {
	f := NewFormatter(LocaleArabic, PrecisionMinutes)

	assert.Equal(t, "1 يوم 1 ساعة 30 دقيقة", f.Format(time.Date(2024, 1, 2, 1, 30, 45, 0, time.UTC), epoch))
	assert.Equal(t, "انتهت", f.Format(epoch, epoch))
	assert.Equal(t, "تاريخ غير صالح", f.Format(time.Time{}, epoch))
}

func TestFormatter_FormatRaw(t *testing.T) {
	f := Formatter{}

	assert.Equal(t, "0d 2h 0m", f.FormatRaw("2024-01-01T02:00:00Z", epoch))
	assert.Equal(t, "Invalid date", f.FormatRaw("someday", epoch))
	assert.Equal(t, "Ended", f.FormatRaw("2023-12-31T00:00:00Z", epoch))
}

func TestLocale_Sentinels(t *testing.T) {
	for _, l := range SupportedLocales() {
		f := NewFormatter(l, PrecisionSeconds)
		assert.Equal(t, l.EndedSentinel(), f.Format(epoch.Add(-time.Second), epoch), l)
		assert.Equal(t, l.InvalidDateSentinel(), f.Format(time.Time{}, epoch), l)
		assert.Equal(t, l.InvalidDateSentinel(), f.FormatRaw("not a date", epoch), l)
	}

	assert.Equal(t, "Ended", Locale("fr").EndedSentinel())
	assert.Equal(t, "انتهت", LocaleArabic.EndedSentinel())
	assert.Equal(t, "تاريخ غير صالح", LocaleArabic.InvalidDateSentinel())
}

func TestNewFormatter_Normalises(t *testing.T) {
	f := NewFormatter(Locale("fr"), Unit(42))
	assert.Equal(t, LocaleEnglish, f.Locale)
	assert.Equal(t, PrecisionMinutes, f.Precision)
}

func TestParseLocale(t *testing.T) {
	assert.Equal(t, LocaleArabic, ParseLocale("ar-SA"))
	assert.Equal(t, LocaleArabic, ParseLocale(" AR "))
	assert.Equal(t, LocaleEnglish, ParseLocale("en_US"))
	assert.Equal(t, LocaleEnglish, ParseLocale("de"))
	assert.Equal(t, LocaleEnglish, ParseLocale(""))
}

func TestParsePrecision(t *testing.T) {
	assert.Equal(t, PrecisionSeconds, ParsePrecision("seconds"))
	assert.Equal(t, PrecisionSeconds, ParsePrecision("S"))
	assert.Equal(t, PrecisionMinutes, ParsePrecision("minutes"))
	assert.Equal(t, PrecisionMinutes, ParsePrecision(""))
}

func TestFormatContest(t *testing.T) {
	record := models.ContestRecord{
		ID:        1,
		StartTime: epoch.Add(2 * time.Hour),
		EndTime:   epoch.Add(26 * time.Hour),
	}
	f := Formatter{}

	soon := models.ClassifiedContest{ContestRecord: record, Status: models.ContestStatusSoon}
	running := models.ClassifiedContest{ContestRecord: record, Status: models.ContestStatusRunning}
	ended := models.ClassifiedContest{ContestRecord: record, Status: models.ContestStatusEnded}

	assert.Equal(t, "0d 2h 0m", f.FormatContest(soon, epoch))
	assert.Equal(t, "1d 2h 0m", f.FormatContest(running, epoch))
	assert.Equal(t, "Ended", f.FormatContest(ended, epoch))
}

func TestFormatRemaining_SentinelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offset := time.Duration(rapid.Int64Range(-10*365*24*3600, 10*365*24*3600).Draw(t, "offset_sec")) * time.Second
		target := epoch.Add(offset)

		got := FormatRemaining(target, epoch)

		if offset <= 0 {
			if got != "Ended" {
				t.Fatalf("target %v <= now: got %q, want Ended", target, got)
			}
			return
		}
		if got == "Ended" || got == "Invalid date" {
			t.Fatalf("target %v > now: got sentinel %q", target, got)
		}
	})
}

func TestBreakdown_RecomposesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secs := rapid.Int64Range(1, 400*24*3600).Draw(t, "secs")
		nanos := rapid.Int64Range(0, int64(time.Second)-1).Draw(t, "nanos")
		target := epoch.Add(time.Duration(secs)*time.Second + time.Duration(nanos))

		r := Breakdown(target, epoch)

		if r.Hours >= 24 || r.Minutes >= 60 || r.Seconds >= 60 {
			t.Fatalf("unit overflow: %+v", r)
		}
		total := int64(r.Days)*86400 + int64(r.Hours)*3600 + int64(r.Minutes)*60 + int64(r.Seconds)
		if total != secs {
			t.Fatalf("recomposed %d, want %d", total, secs)
		}
	})
}
