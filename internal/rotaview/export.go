package rotaview

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// Document is the YAML rota handed to the recording team.
type Document struct {
	GeneratedAt time.Time       `yaml:"generated_at"`
	Coverage    rota.Coverage   `yaml:"coverage"`
	Days        []DaySheet      `yaml:"days"`
	Recorders   []RecorderSheet `yaml:"recorders"`
}

// NewDocument assembles the export for the given state of the rota.
func NewDocument(talks []models.Talk, recorders []models.Recorder, now time.Time) Document {
	return Document{
		GeneratedAt: now,
		Coverage:    Coverage(talks),
		Days:        ByVenue(talks),
		Recorders:   ByRecorder(talks, recorders),
	}
}

// RenderYAML writes doc as a single YAML document.
func RenderYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode rota yaml: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{"day", "start", "end", "venue", "talk_id", "title", "speaker", "priority", "recorder"}

// RenderCSV writes one row per talk in start order. Times are HH:MM in loc.
func RenderCSV(w io.Writer, talks []models.Talk, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, slot := range ByTime(talks) {
		for _, e := range slot.Talks {
			rec := []string{
				e.Day,
				e.Start.In(loc).Format("15:04"),
				e.End.In(loc).Format("15:04"),
				e.Venue,
				strconv.FormatUint(uint64(e.TalkID), 10),
				e.Title,
				e.Speaker,
				strconv.FormatBool(e.Priority),
				e.Recorder,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// Publisher stores rendered export files.
type Publisher interface {
	PublishExport(ctx context.Context, name string, body []byte, contentType string) (string, error)
}

// Publish renders the YAML and CSV rota and hands both to p under a
// timestamped name. It returns the published keys.
func Publish(ctx context.Context, p Publisher, talks []models.Talk, recorders []models.Recorder, now time.Time, loc *time.Location) ([]string, error) {
	stamp := now.UTC().Format("20060102T150405Z")

	var yml bytes.Buffer
	if err := RenderYAML(&yml, NewDocument(talks, recorders, now)); err != nil {
		return nil, err
	}
	var tbl bytes.Buffer
	if err := RenderCSV(&tbl, talks, loc); err != nil {
		return nil, fmt.Errorf("encode rota csv: %w", err)
	}

	var keys []string
	for _, f := range []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"rota-" + stamp + ".yaml", yml.Bytes(), "application/yaml"},
		{"rota-" + stamp + ".csv", tbl.Bytes(), "text/csv"},
	} {
		key, err := p.PublishExport(ctx, f.name, f.body, f.contentType)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
