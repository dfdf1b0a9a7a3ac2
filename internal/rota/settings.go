package rota

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Setting keys as stored in the rota_settings table.
const (
	KeyShiftLength                = "shift_length"
	KeyBreakBetweenShifts         = "break_between_shifts"
	KeyMinimumTimeBetweenTalks    = "minimum_time_between_talks"
	KeyMaxTalksPerShift           = "max_talks_per_shift"
	KeyMaxShiftsPerDayLimit       = "max_shifts_per_day_limit"
	KeySameVenueAssignmentWindow  = "same_venue_assignment_window"
	KeyAdditionalTalkSearchWindow = "additional_talk_search_window"
	KeyAdditionalTalkMinimumGap   = "additional_talk_minimum_gap"
)

// MaxShiftsPerDayCeiling is the hard upper bound for max_shifts_per_day_limit.
const MaxShiftsPerDayCeiling = 3

// ErrInvalidSetting is returned when a setting write is out of range.
var ErrInvalidSetting = errors.New("invalid rota setting")

// SettingDefinition describes one tunable, its default and its bounds.
type SettingDefinition struct {
	Key         string
	Default     int
	Min         int
	Max         int
	Unit        string
	Description string
}

// Definitions lists every tunable the engine reads.
var Definitions = []SettingDefinition{
	{KeyShiftLength, 3, 1, 24, "hours", "Maximum length of a single recording shift"},
	{KeyBreakBetweenShifts, 2, 1, 24, "hours", "Minimum break between two shifts on the same day"},
	{KeyMinimumTimeBetweenTalks, 20, 1, 240, "minutes", "Gap required after a talk before the same recorder starts another"},
	{KeyMaxTalksPerShift, 2, 1, 12, "talks", "Maximum talks a recorder covers in one shift"},
	{KeyMaxShiftsPerDayLimit, 2, 1, MaxShiftsPerDayCeiling, "shifts", "Global ceiling on shifts per recorder per day"},
	{KeySameVenueAssignmentWindow, 3, 1, 24, "hours", "Window after a priority talk in which same-venue priority talks go to the same recorder"},
	{KeyAdditionalTalkSearchWindow, 1, 1, 24, "hours", "How far after an additional talk to look for a follow-on talk"},
	{KeyAdditionalTalkMinimumGap, 20, 1, 240, "minutes", "Minimum gap before a follow-on additional talk"},
}

// Definition looks up a tunable by key.
func Definition(key string) (SettingDefinition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return SettingDefinition{}, false
}

// ValidateSetting checks a value before it is written to the store.
func ValidateSetting(key string, value int) error {
	d, ok := Definition(key)
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	if value < d.Min || value > d.Max {
		return fmt.Errorf("%w: %s=%d must be between %d and %d %s", ErrInvalidSetting, key, value, d.Min, d.Max, d.Unit)
	}
	return nil
}

// Settings is the explicit configuration every rota component reads.
// Values are already validated; the zero Location means UTC.
type Settings struct {
	ShiftLength                time.Duration
	BreakBetweenShifts         time.Duration
	MinimumTimeBetweenTalks    time.Duration
	MaxTalksPerShift           int
	MaxShiftsPerDayLimit       int
	SameVenueAssignmentWindow  time.Duration
	AdditionalTalkSearchWindow time.Duration
	AdditionalTalkMinimumGap   time.Duration

	Location *time.Location
}

// DefaultSettings returns the seeded defaults.
func DefaultSettings() Settings {
	return SettingsFromValues(nil)
}

// SettingsFromValues builds Settings from stored key/value pairs, falling back
// to the default for every missing key.
func SettingsFromValues(values map[string]int) Settings {
	get := func(key string) int {
		if v, ok := values[key]; ok {
			return v
		}
		d, _ := Definition(key)
		return d.Default
	}

	return Settings{
		ShiftLength:                time.Duration(get(KeyShiftLength)) * time.Hour,
		BreakBetweenShifts:         time.Duration(get(KeyBreakBetweenShifts)) * time.Hour,
		MinimumTimeBetweenTalks:    time.Duration(get(KeyMinimumTimeBetweenTalks)) * time.Minute,
		MaxTalksPerShift:           get(KeyMaxTalksPerShift),
		MaxShiftsPerDayLimit:       get(KeyMaxShiftsPerDayLimit),
		SameVenueAssignmentWindow:  time.Duration(get(KeySameVenueAssignmentWindow)) * time.Hour,
		AdditionalTalkSearchWindow: time.Duration(get(KeyAdditionalTalkSearchWindow)) * time.Hour,
		AdditionalTalkMinimumGap:   time.Duration(get(KeyAdditionalTalkMinimumGap)) * time.Minute,
	}
}

// Values converts Settings back into the stored integer form.
func (s Settings) Values() map[string]int {
	return map[string]int{
		KeyShiftLength:                int(s.ShiftLength / time.Hour),
		KeyBreakBetweenShifts:         int(s.BreakBetweenShifts / time.Hour),
		KeyMinimumTimeBetweenTalks:    int(s.MinimumTimeBetweenTalks / time.Minute),
		KeyMaxTalksPerShift:           s.MaxTalksPerShift,
		KeyMaxShiftsPerDayLimit:       s.MaxShiftsPerDayLimit,
		KeySameVenueAssignmentWindow:  int(s.SameVenueAssignmentWindow / time.Hour),
		KeyAdditionalTalkSearchWindow: int(s.AdditionalTalkSearchWindow / time.Hour),
		KeyAdditionalTalkMinimumGap:   int(s.AdditionalTalkMinimumGap / time.Minute),
	}
}

// Keys returns every known setting key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(Definitions))
	for _, d := range Definitions {
		out = append(out, d.Key)
	}
	sort.Strings(out)
	return out
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// SameDay reports whether a and b fall on the same calendar day in the event zone.
func (s Settings) SameDay(a, b time.Time) bool {
	loc := s.location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
