package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a supplier whose products are consolidated into one open lot at
// a time.
type Provider struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	ContactEmail string    `gorm:"column:contact_email"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
