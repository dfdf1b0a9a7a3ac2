package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

var (
	ErrInvalidTalk     = errors.New("invalid talk")
	ErrInvalidRecorder = errors.New("invalid recorder")
)

// ValidateTalk enforces start < end.
func ValidateTalk(t *models.Talk) error {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidTalk)
	}
	if !t.StartTime.Before(t.EndTime) {
		return fmt.Errorf("%w: talk %d starts at %s but ends at %s", ErrInvalidTalk, t.ID,
			t.StartTime.Format(time.RFC3339), t.EndTime.Format(time.RFC3339))
	}
	return nil
}

// ValidateRecorder checks the shift count and the HH:MM availability window.
func ValidateRecorder(r *models.Recorder) error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecorder)
	}
	if r.MaxShiftsPerDay <= 0 {
		return fmt.Errorf("%w: %s max_shifts_per_day must be positive", ErrInvalidRecorder, r.Name)
	}
	for _, hhmm := range []string{r.EarliestStart, r.LatestEnd} {
		if hhmm == "" {
			continue
		}
		if _, err := time.Parse("15:04", hhmm); err != nil {
			return fmt.Errorf("%w: %s availability %q is not HH:MM", ErrInvalidRecorder, r.Name, hhmm)
		}
	}
	return nil
}

// CreateTalk inserts a single talk. A zero ID takes the next free id.
func CreateTalk(ctx context.Context, db *gorm.DB, t *models.Talk) error {
	if err := ValidateTalk(t); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.ID == 0 {
			var next uint
			if err := tx.Model(&models.Talk{}).Select("COALESCE(MAX(id), 0) + 1").Scan(&next).Error; err != nil {
				return err
			}
			t.ID = next
		}
		return tx.Create(t).Error
	})
}

// UpsertTalks writes imported talks. Descriptive fields and times are
// refreshed on re-import; recorder bindings and flags set by the team are kept.
func UpsertTalks(ctx context.Context, db *gorm.DB, talks []models.Talk) error {
	for i := range talks {
		if err := ValidateTalk(&talks[i]); err != nil {
			return err
		}
	}
	if len(talks) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "speaker", "venue", "day",
			"start_time", "end_time", "is_priority", "updated_at",
		}),
	}).CreateInBatches(&talks, 100).Error
}

// UpsertRecorders writes recorders, updating capacity and availability of
// existing names.
func UpsertRecorders(ctx context.Context, db *gorm.DB, recorders []models.Recorder) error {
	for i := range recorders {
		if err := ValidateRecorder(&recorders[i]); err != nil {
			return err
		}
	}
	if len(recorders) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_shifts_per_day", "earliest_start", "latest_end", "updated_at"}),
	}).Omit("Talks").Create(&recorders).Error
}
