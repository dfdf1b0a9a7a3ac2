package models

import "time"

// RotaRun records the outcome of one rota generation pass.
type RotaRun struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Mode       string    `gorm:"type:varchar(20);index" json:"mode"`    // "generate" | "continue"
	Trigger    string    `gorm:"type:varchar(20)" json:"trigger"`       // "api" | "cli"
	Status     string    `gorm:"type:varchar(20);index" json:"status"`  // "success" | "failed"
	DryRun     bool      `gorm:"default:false" json:"dry_run"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	PriorityTotal      int `json:"priority_total"`
	PriorityAssigned   int `json:"priority_assigned"`
	AdditionalTotal    int `json:"additional_total"`
	AdditionalAssigned int `json:"additional_assigned"`
	Commits            int `json:"commits"`

	Error string `gorm:"type:text" json:"error,omitempty"`
}
