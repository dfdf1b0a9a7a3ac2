package models

import "time"

// Recorder is a volunteer able to record talks. The name is the primary key.
type Recorder struct {
	Name            string `gorm:"primaryKey" json:"name"`
	MaxShiftsPerDay int    `gorm:"not null;default:1" json:"max_shifts_per_day"`

	// Availability window, HH:MM (24h format). Stored for the team leaders,
	// not consulted when building the rota.
	EarliestStart string `gorm:"type:varchar(5)" json:"earliest_start,omitempty"`
	LatestEnd     string `gorm:"type:varchar(5)" json:"latest_end,omitempty"`

	Talks []Talk `gorm:"foreignKey:RecorderName;references:Name" json:"talks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Editor edits recorded talks before they are published.
type Editor struct {
	Name  string `gorm:"primaryKey" json:"name"`
	Talks []Talk `gorm:"foreignKey:EditorName;references:Name" json:"talks,omitempty"`
}
