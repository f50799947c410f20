package countdown

import "strings"

// Locale identifies a language for countdown strings
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

// localeStrings holds the unit labels and sentinels for one locale
type localeStrings struct {
	ended       string
	invalidDate string
	// format renders one unit, e.g. "5m" or "5 دقيقة"
	format    func(value int, unit Unit) string
	separator string
}

var englishUnits = map[Unit]string{
	UnitDays:    "d",
	UnitHours:   "h",
	UnitMinutes: "m",
	UnitSeconds: "s",
}

var arabicUnits = map[Unit]string{
	UnitDays:    "يوم",
	UnitHours:   "ساعة",
	UnitMinutes: "دقيقة",
	UnitSeconds: "ثانية",
}

var locales = map[Locale]localeStrings{
	LocaleEnglish: {
		ended:       "Ended",
		invalidDate: "Invalid date",
		format: func(value int, unit Unit) string {
			return itoa(value) + englishUnits[unit]
		},
		separator: " ",
	},
	LocaleArabic: {
		ended:       "انتهت",
		invalidDate: "تاريخ غير صالح",
		format: func(value int, unit Unit) string {
			return itoa(value) + " " + arabicUnits[unit]
		},
		separator: " ",
	},
}

// ParseLocale maps a language tag such as "ar-SA" or "EN" to a supported
// locale. Unknown tags fall back to English.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if _, ok := locales[Locale(tag)]; ok {
		return Locale(tag)
	}
	return LocaleEnglish
}

// Supported reports whether l has translations
func (l Locale) Supported() bool {
	_, ok := locales[l]
	return ok
}

// EndedSentinel returns the string shown once the target has passed
func (l Locale) EndedSentinel() string {
	return l.strings().ended
}

// InvalidDateSentinel returns the string shown for unparsable targets
func (l Locale) InvalidDateSentinel() string {
	return l.strings().invalidDate
}

func (l Locale) strings() localeStrings {
	if s, ok := locales[l]; ok {
		return s
	}
	return locales[LocaleEnglish]
}

// SupportedLocales lists every locale with translations
func SupportedLocales() []Locale {
	return []Locale{LocaleEnglish, LocaleArabic}
}
