// Package rotaview lays the rota out for people: a per-day grid of venues,
// a chronological list, and the YAML and CSV files handed to the recording
// team.
package rotaview

import (
	"sort"
	"time"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// Entry is one talk as it appears on a printed rota.
type Entry struct {
	TalkID    uint      `json:"talk_id" yaml:"talk_id"`
	Title     string    `json:"title" yaml:"title"`
	Speaker   string    `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Venue     string    `json:"venue" yaml:"venue"`
	Day       string    `json:"day" yaml:"day"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
	Priority  bool      `json:"priority" yaml:"priority"`
	Cancelled bool      `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Recorder  string    `json:"recorder,omitempty" yaml:"recorder,omitempty"`
}

// VenueColumn holds one venue's talks for a day.
type VenueColumn struct {
	Venue string  `json:"venue" yaml:"venue"`
	Talks []Entry `json:"talks" yaml:"talks"`
}

// DaySheet is the by-venue view of one festival day.
type DaySheet struct {
	Day    string        `json:"day" yaml:"day"`
	Times  []time.Time   `json:"times" yaml:"times"`
	Venues []VenueColumn `json:"venues" yaml:"venues"`
}

// TimeSlot groups the talks starting at the same moment, ordered by venue.
type TimeSlot struct {
	Start time.Time `json:"start" yaml:"start"`
	Talks []Entry   `json:"talks" yaml:"talks"`
}

func entry(t models.Talk) Entry {
	return Entry{
		TalkID:    t.ID,
		Title:     t.Title,
		Speaker:   t.Speaker,
		Venue:     t.Venue,
		Day:       t.Day,
		Start:     t.StartTime,
		End:       t.EndTime,
		Priority:  t.IsPriority,
		Cancelled: t.IsCancelled,
		Recorder:  t.Recorder(),
	}
}

// sorted returns a copy of talks ordered by start, then venue, then id.
func sorted(talks []models.Talk) []models.Talk {
	out := append([]models.Talk(nil), talks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.Venue != b.Venue {
			return a.Venue < b.Venue
		}
		return a.ID < b.ID
	})
	return out
}

// ByVenue builds one sheet per day, days in order of their first talk and
// venues alphabetically.
func ByVenue(talks []models.Talk) []DaySheet {
	var sheets []DaySheet
	dayIndex := map[string]int{}
	venueIndex := map[string]map[string]int{}
	seenTime := map[string]map[int64]bool{}

	for _, t := range sorted(talks) {
		i, ok := dayIndex[t.Day]
		if !ok {
			i = len(sheets)
			dayIndex[t.Day] = i
			sheets = append(sheets, DaySheet{Day: t.Day})
			venueIndex[t.Day] = map[string]int{}
			seenTime[t.Day] = map[int64]bool{}
		}
		sheet := &sheets[i]

		if ts := t.StartTime.Unix(); !seenTime[t.Day][ts] {
			seenTime[t.Day][ts] = true
			sheet.Times = append(sheet.Times, t.StartTime)
		}

		v, ok := venueIndex[t.Day][t.Venue]
		if !ok {
			v = len(sheet.Venues)
			venueIndex[t.Day][t.Venue] = v
			sheet.Venues = append(sheet.Venues, VenueColumn{Venue: t.Venue})
		}
		sheet.Venues[v].Talks = append(sheet.Venues[v].Talks, entry(t))
	}

	for i := range sheets {
		sort.SliceStable(sheets[i].Venues, func(a, b int) bool {
			return sheets[i].Venues[a].Venue < sheets[i].Venues[b].Venue
		})
	}
	return sheets
}

// ByTime lists talks grouped by start time.
func ByTime(talks []models.Talk) []TimeSlot {
	var slots []TimeSlot
	for _, t := range sorted(talks) {
		if n := len(slots); n == 0 || !slots[n-1].Start.Equal(t.StartTime) {
			slots = append(slots, TimeSlot{Start: t.StartTime})
		}
		slots[len(slots)-1].Talks = append(slots[len(slots)-1].Talks, entry(t))
	}
	return slots
}

// RecorderSheet is one recorder's personal rota.
type RecorderSheet struct {
	Recorder string  `json:"recorder" yaml:"recorder"`
	Talks    []Entry `json:"talks" yaml:"talks"`
}

// ByRecorder lists every recorder, including idle ones, with their talks in
// start order.
func ByRecorder(talks []models.Talk, recorders []models.Recorder) []RecorderSheet {
	b := rota.NewBoard(talks, recorders)
	sheets := make([]RecorderSheet, 0, len(recorders))
	for _, r := range b.Recorders() {
		sheet := RecorderSheet{Recorder: r.Name, Talks: []Entry{}}
		for _, t := range b.TalksFor(r.Name) {
			sheet.Talks = append(sheet.Talks, entry(*t))
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// Coverage counts assigned talks the same way a run summary does.
func Coverage(talks []models.Talk) rota.Coverage {
	return rota.NewBoard(talks, nil).Coverage()
}
