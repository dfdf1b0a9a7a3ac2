package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

// RotaStore is the gorm-backed store the rota engine runs against. A run
// happens inside one database transaction, so a failed write rolls back every
// binding the run made.
type RotaStore struct {
	db *gorm.DB
}

func NewRotaStore(db *gorm.DB) *RotaStore {
	return &RotaStore{db: db}
}

func (s *RotaStore) WithinTx(ctx context.Context, fn func(tx rota.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&rotaTx{db: tx})
	})
}

func (s *RotaStore) RecordRun(ctx context.Context, run *models.RotaRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("record rota run %s: %w", run.ID, err)
	}
	return nil
}

type rotaTx struct {
	db *gorm.DB
}

func (t *rotaTx) SettingValues(ctx context.Context) (map[string]int, error) {
	var rows []models.RotaSetting
	if err := t.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	values := make(map[string]int, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	return values, nil
}

func (t *rotaTx) Talks(ctx context.Context) ([]models.Talk, error) {
	var talks []models.Talk
	err := t.db.WithContext(ctx).Order("start_time asc, id asc").Find(&talks).Error
	return talks, err
}

func (t *rotaTx) Recorders(ctx context.Context) ([]models.Recorder, error) {
	var recorders []models.Recorder
	err := t.db.WithContext(ctx).Order("name asc").Find(&recorders).Error
	return recorders, err
}

func (t *rotaTx) ClearAssignments(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Talk{}).
		Where("recorder_name IS NOT NULL").
		Update("recorder_name", gorm.Expr("NULL"))
	return res.RowsAffected, res.Error
}

func (t *rotaTx) SetRecorder(ctx context.Context, talkID uint, recorder *string) error {
	var value interface{} = gorm.Expr("NULL")
	if recorder != nil {
		value = *recorder
	}

	res := t.db.WithContext(ctx).
		Model(&models.Talk{}).
		Where("id = ?", talkID).
		Update("recorder_name", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", rota.ErrTalkNotFound, talkID)
	}
	return nil
}

// ListRuns returns the most recent rota runs, newest first.
func ListRuns(ctx context.Context, db *gorm.DB, limit int) ([]models.RotaRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.RotaRun
	err := db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
