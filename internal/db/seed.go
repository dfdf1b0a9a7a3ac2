package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// SeedSettings writes the default value of every rota tunable that is not in
// the table yet. Existing values are left alone.
func SeedSettings(ctx context.Context, db *gorm.DB) error {
	for _, d := range rota.Definitions {
		s := models.RotaSetting{
			Key:         d.Key,
			Value:       d.Default,
			Description: d.Description,
			Unit:        d.Unit,
		}
		// UPSERT based on 'key' so restarts never clobber edited values
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&s).Error
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", d.Key, err)
		}
	}
	return nil
}
