package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Package is created from a confirmed lot; one lot may yield several.
type Package struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotID     uuid.UUID           `gorm:"column:lot_id;type:uuid;not null"`
	Status    enums.PackageStatus `gorm:"column:status;type:package_status;not null;default:'created'"`
	WeightKg  float64             `gorm:"column:weight_kg;not null;default:0"`
	VolumeM3  float64             `gorm:"column:volume_m3;not null;default:0"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
