package rota

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

func TestClashes(t *testing.T) {
	existing := talk(1, "Big Top", at(0, 10, 0), true) // 10:00-11:00, window to 11:20
	committed := []*models.Talk{&existing}

	tests := []struct {
		name    string
		start   [2]int
		minutes int
		mode    ClashMode
		want    bool
	}{
		{name: "starts inside talk", start: [2]int{10, 30}, minutes: 60, want: true},
		{name: "starts inside gap", start: [2]int{11, 15}, minutes: 60, want: true},
		{name: "starts on gap boundary", start: [2]int{11, 20}, minutes: 60, want: true},
		{name: "starts after gap", start: [2]int{11, 21}, minutes: 60, want: false},
		{name: "ends on existing start", start: [2]int{9, 0}, minutes: 60, want: true},
		{name: "ends before existing start", start: [2]int{8, 30}, minutes: 60, want: false},
		{name: "contains window, boundary mode", start: [2]int{9, 30}, minutes: 150, mode: ClashBoundary, want: false},
		{name: "contains window, overlap mode", start: [2]int{9, 30}, minutes: 150, mode: ClashOverlap, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(DefaultSettings())
			if tt.mode != "" {
				p.ClashMode = tt.mode
			}
			candidate := talk(2, "Canopy", at(0, tt.start[0], tt.start[1]), false)
			candidate.EndTime = candidate.StartTime.Add(minutes(tt.minutes))

			assert.Equal(t, tt.want, p.Clashes(committed, &candidate))
		})
	}
}

func TestClashesIgnoresSameTalk(t *testing.T) {
	existing := talk(1, "Big Top", at(0, 10, 0), true)
	p := NewPolicy(DefaultSettings())

	assert.False(t, p.Clashes([]*models.Talk{&existing}, &existing))
}

func TestClashesHonoursGapSetting(t *testing.T) {
	existing := talk(1, "Big Top", at(0, 10, 0), true)
	candidate := talk(2, "Big Top", at(0, 11, 15), true)

	s := DefaultSettings()
	s.MinimumTimeBetweenTalks = minutes(10)
	p := NewPolicy(s)

	assert.False(t, p.Clashes([]*models.Talk{&existing}, &candidate))
}

func TestParseClashMode(t *testing.T) {
	m, err := ParseClashMode("")
	assert.NoError(t, err)
	assert.Equal(t, ClashBoundary, m)

	m, err = ParseClashMode(" Overlap ")
	assert.NoError(t, err)
	assert.Equal(t, ClashOverlap, m)

	_, err = ParseClashMode("strict")
	assert.Error(t, err)
}
