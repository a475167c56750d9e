package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a named site assets can live at. The code is immutable once
// created and is what operators refer to day to day (e.g. HK, SZ).
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	Address   *string   `gorm:"column:address"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
