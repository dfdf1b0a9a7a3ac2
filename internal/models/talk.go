package models

import (
	"time"
)

// Talk is one bookable recording slot.
type Talk struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Speaker     string `gorm:"index" json:"speaker"`
	Venue       string `gorm:"index" json:"venue"`
	Day         string `gorm:"index" json:"day"` // e.g. "Friday"

	StartTime time.Time `gorm:"index;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	IsPriority  bool `gorm:"default:false" json:"is_priority"`
	IsRotaed    bool `json:"is_rotaed"`                       // false = handled outside the rota
	IsCleared   bool `gorm:"default:false" json:"is_cleared"` // content clearance, audio pipeline only
	IsCancelled bool `gorm:"default:false" json:"is_cancelled"`

	RecorderName *string `gorm:"index" json:"recorder_name"`
	EditorName   *string `gorm:"index" json:"editor_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Duration is the length of the slot.
func (t Talk) Duration() time.Duration {
	return t.EndTime.Sub(t.StartTime)
}

// IsAssigned reports whether a recorder is bound to the talk.
func (t Talk) IsAssigned() bool {
	return t.RecorderName != nil && *t.RecorderName != ""
}

// Recorder returns the bound recorder name, or "" when unassigned.
func (t Talk) Recorder() string {
	if t.RecorderName == nil {
		return ""
	}
	return *t.RecorderName
}
