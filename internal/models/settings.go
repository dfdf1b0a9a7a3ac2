package models

import "time"

// RotaSetting is one named tunable of the rota engine.
type RotaSetting struct {
	Key         string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value       int       `gorm:"not null" json:"value"`
	Description string    `json:"description"`
	Unit        string    `gorm:"type:varchar(16)" json:"unit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization
func (RotaSetting) TableName() string {
	return "rota_settings"
}
