// Package importer loads the festival programme and the recorder list from
// the CSV exports the programme team hands over.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

var ErrBadRow = errors.New("malformed csv row")

// Talk CSV columns. Columns 1-3 are unused programme fields.
const (
	colID          = 0
	colVenue       = 4
	colTime        = 5
	colDay         = 6
	colTitle       = 7
	colSpeaker     = 8
	colDescription = 9
	colPriority    = 10 // optional
)

// TalkDuration is the slot length given to every imported talk.
const TalkDuration = time.Hour

// festivalDays maps the programme's day names to offsets from the Friday.
var festivalDays = map[string]int{
	"friday":   0,
	"saturday": 1,
	"sunday":   2,
	"monday":   3,
}

type Importer struct {
	db     *gorm.DB
	friday time.Time
	log    zerolog.Logger
}

// New returns an importer anchoring talk days on friday (midnight, event zone).
func New(db *gorm.DB, friday time.Time) *Importer {
	return &Importer{db: db, friday: friday, log: log.WithComponent("importer")}
}

// ImportTalks parses r and upserts every talk. Returns the number of talks written.
func (im *Importer) ImportTalks(ctx context.Context, r io.Reader) (int, error) {
	talks, err := ParseTalks(r, im.friday)
	if err != nil {
		return 0, err
	}
	if err := database.UpsertTalks(ctx, im.db, talks); err != nil {
		return 0, fmt.Errorf("store talks: %w", err)
	}
	im.log.Info().Int("talks", len(talks)).Msg("talks imported")
	return len(talks), nil
}

// ImportRecorders parses r and upserts every recorder.
func (im *Importer) ImportRecorders(ctx context.Context, r io.Reader) (int, error) {
	recorders, err := ParseRecorders(r)
	if err != nil {
		return 0, err
	}
	if err := database.UpsertRecorders(ctx, im.db, recorders); err != nil {
		return 0, fmt.Errorf("store recorders: %w", err)
	}
	im.log.Info().Int("recorders", len(recorders)).Msg("recorders imported")
	return len(recorders), nil
}

// ParseTalks reads the programme CSV. A first row whose id column is not a
// number is treated as a header.
func ParseTalks(r io.Reader, friday time.Time) ([]models.Talk, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var talks []models.Talk
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		id, err := strconv.ParseUint(strings.TrimSpace(row[colID]), 10, 32)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%w: line %d: id %q", ErrBadRow, line, row[colID])
		}
		if len(row) <= colDescription {
			return nil, fmt.Errorf("%w: line %d: want at least %d columns, got %d", ErrBadRow, line, colDescription+1, len(row))
		}

		start, err := StartOfTalk(friday, row[colDay], row[colTime])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}

		talk := models.Talk{
			ID:          uint(id),
			Title:       strings.TrimSpace(row[colTitle]),
			Description: strings.TrimSpace(row[colDescription]),
			Speaker:     strings.TrimSpace(row[colSpeaker]),
			Venue:       strings.TrimSpace(row[colVenue]),
			Day:         dayLabel(row[colDay]),
			StartTime:   start,
			EndTime:     start.Add(TalkDuration),
			IsRotaed:    true,
		}
		if len(row) > colPriority {
			talk.IsPriority = parseFlag(row[colPriority])
		}
		talks = append(talks, talk)
	}
	return talks, nil
}

// StartOfTalk combines a festival day name with a programme time such as
// "10:00 AM" or "14:30". The hour is read on the 24 hour clock; an AM/PM
// suffix is ignored, matching how the programme is exported.
func StartOfTalk(friday time.Time, day, clock string) (time.Time, error) {
	offset, ok := festivalDays[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown festival day %q", day)
	}

	clock = strings.TrimSpace(clock)
	upper := strings.ToUpper(clock)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		clock = strings.TrimSpace(clock[:len(clock)-2])
	}
	tod, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", clock)
	}

	y, m, d := friday.Date()
	return time.Date(y, m, d+offset, tod.Hour(), tod.Minute(), 0, 0, friday.Location()), nil
}

// ParseRecorders reads "name, max_shifts_per_day[, earliest_start, latest_end]" rows.
func ParseRecorders(r io.Reader) ([]models.Recorder, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var recorders []models.Recorder
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: line %d: want name and max_shifts_per_day", ErrBadRow, line)
		}

		shifts, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%w: line %d: max_shifts_per_day %q", ErrBadRow, line, row[1])
		}

		rec := models.Recorder{
			Name:            strings.TrimSpace(row[0]),
			MaxShiftsPerDay: shifts,
		}
		if len(row) > 2 {
			rec.EarliestStart = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			rec.LatestEnd = strings.TrimSpace(row[3])
		}
		if err := database.ValidateRecorder(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recorders = append(recorders, rec)
	}
	return recorders, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "priority":
		return true
	}
	return false
}

func dayLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
