package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Lot is the consolidation unit for one provider's open ordering cycle. Its
// identity, status, and timestamps survive rebuilds; only the derived items
// are replaced.
type Lot struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID     uuid.UUID       `gorm:"column:provider_id;type:uuid;not null"`
	Status         enums.LotStatus `gorm:"column:status;type:lot_status;not null;default:'pending'"`
	ScheduledAt    time.Time       `gorm:"column:scheduled_at;not null"`
	ConsolidatedAt *time.Time      `gorm:"column:consolidated_at"`
	OrderSentAt    *time.Time      `gorm:"column:order_sent_at"`
	ConfirmedAt    *time.Time      `gorm:"column:confirmed_at"`
	Items          []LotItem       `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
