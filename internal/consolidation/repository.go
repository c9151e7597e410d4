package consolidation

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
)

// Repository loads rebuild snapshots and persists derived lot state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	ReplaceLots(ctx context.Context, lots []models.Lot) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a consolidation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LoadSnapshot reads everything one rebuild pass needs. Run inside a
// transaction so the carts, products, providers, and lots are mutually
// consistent.
func (r *repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status <> ?", enums.CartStatusDraft).
		Find(&snap.Carts).Error
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Find(&snap.Products).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Find(&snap.Providers).Error; err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Preload("Items").
		Find(&snap.PreviousLots).Error
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// ReplaceLots upserts the lots and swaps their derived items wholesale.
// Lot rows are never deleted here; identity is preserved by upserting on id.
func (r *repository) ReplaceLots(ctx context.Context, lots []models.Lot) error {
	if len(lots) == 0 {
		return nil
	}

	db := r.db.WithContext(ctx)

	lotIDs := make([]any, 0, len(lots))
	items := make([]models.LotItem, 0)
	for i := range lots {
		lotIDs = append(lotIDs, lots[i].ID)
		items = append(items, lots[i].Items...)
	}

	rows := make([]models.Lot, len(lots))
	copy(rows, lots)
	for i := range rows {
		rows[i].Items = nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return err
	}

	if err := db.Where("lot_id IN ?", lotIDs).Delete(&models.LotItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}
