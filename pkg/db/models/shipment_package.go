package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentPackage links a package to the shipment that carries it.
type ShipmentPackage struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID `gorm:"column:shipment_id;type:uuid;not null"`
	PackageID  uuid.UUID `gorm:"column:package_id;type:uuid;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
