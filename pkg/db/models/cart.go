package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Cart is a user-owned collection of draft items. Once paid it becomes a
// read-only input to lot consolidation.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status    enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'draft'"`
	PaidAt    *time.Time       `gorm:"column:paid_at"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
