package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is immutable reference data during a purchase cycle. MOQByProvider
// is the supplier-side threshold that gates lot readiness; MinFractionPerUser
// is the quantity granularity step a single buyer must respect.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	PriceUnit          string          `gorm:"column:price_unit;not null;default:'unit'"`
	CustomerMOQ        int             `gorm:"column:customer_moq;not null;default:1"`
	MinFractionPerUser int             `gorm:"column:min_fraction_per_user;not null;default:1"`
	MOQByProvider      int             `gorm:"column:moq_by_provider;not null;default:0"`
	SupplierMOQ        int             `gorm:"column:supplier_moq;not null;default:0"`
	ProviderID         uuid.UUID       `gorm:"column:provider_id;type:uuid;not null"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
