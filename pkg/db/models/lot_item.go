package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/types"
)

// LotItem is fully derived by the rebuilder and never hand-edited. TotalQty
// always equals the sum of its contributions.
type LotItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LotID         uuid.UUID           `gorm:"column:lot_id;type:uuid;not null"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	TotalQty      int                 `gorm:"column:total_qty;not null"`
	Contributions types.Contributions `gorm:"column:contributions;type:jsonb;serializer:json"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
