package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Shipment groups ready-for-pickup packages, possibly across lots and
// providers, under one carrier.
type Shipment struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CarrierName string               `gorm:"column:carrier_name;not null"`
	Status      enums.ShipmentStatus `gorm:"column:status;type:shipment_status;not null;default:'assembling'"`
	ETA         *time.Time           `gorm:"column:eta"`
	StartedAt   *time.Time           `gorm:"column:started_at"`
	ArrivedAt   *time.Time           `gorm:"column:arrived_at"`
	Packages    []ShipmentPackage    `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
