package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// ListSettings returns every rota setting ordered by key. Keys missing from
// the table are reported with their default value.
func ListSettings(ctx context.Context, db *gorm.DB) ([]models.RotaSetting, error) {
	var rows []models.RotaSetting
	if err := db.WithContext(ctx).Order("key asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	stored := make(map[string]bool, len(rows))
	for _, r := range rows {
		stored[r.Key] = true
	}
	for _, d := range rota.Definitions {
		if !stored[d.Key] {
			rows = append(rows, models.RotaSetting{Key: d.Key, Value: d.Default, Description: d.Description, Unit: d.Unit})
		}
	}
	return rows, nil
}

// SetSetting validates and stores one value. Out-of-range values never reach
// the table.
func SetSetting(ctx context.Context, db *gorm.DB, key string, value int) (models.RotaSetting, error) {
	if err := rota.ValidateSetting(key, value); err != nil {
		return models.RotaSetting{}, err
	}
	d, _ := rota.Definition(key)

	s := models.RotaSetting{
		Key:         key,
		Value:       value,
		Description: d.Description,
		Unit:        d.Unit,
		UpdatedAt:   time.Now(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return models.RotaSetting{}, fmt.Errorf("store setting %s: %w", key, err)
	}
	return s, nil
}
