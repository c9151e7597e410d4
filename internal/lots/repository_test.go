package lots

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	"github.com/cocomarket/bulkbuy-backend/pkg/pagination"
	"github.com/cocomarket/bulkbuy-backend/pkg/types"
)

func setupLotTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:lots_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	lots := `
CREATE TABLE IF NOT EXISTS lots (
  id TEXT PRIMARY KEY,
  provider_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  scheduled_at DATETIME NOT NULL,
  consolidated_at DATETIME,
  order_sent_at DATETIME,
  confirmed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	lotItems := `
CREATE TABLE IF NOT EXISTS lot_items (
  id TEXT PRIMARY KEY,
  lot_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  total_qty INTEGER NOT NULL DEFAULT 0,
  contributions TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (lot_id, product_id)
);`
	packages := `
CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY,
  lot_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  weight_kg REAL NOT NULL DEFAULT 0,
  volume_m3 REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(lots).Error)
	require.NoError(t, db.Exec(lotItems).Error)
	require.NoError(t, db.Exec(packages).Error)
	return db
}

func seedLot(t *testing.T, db *gorm.DB, createdAt time.Time) *models.Lot {
	t.Helper()

	lot := &models.Lot{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		Status:      enums.LotStatusPending,
		ScheduledAt: createdAt,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

func TestRepositoryFindByIDPreloadsItems(t *testing.T) {
	db := setupLotTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lot := seedLot(t, db, time.Now().UTC())
	item := &models.LotItem{
		ID:        uuid.New(),
		LotID:     lot.ID,
		ProductID: uuid.New(),
		TotalQty:  30,
		Contributions: types.Contributions{
			{UserID: uuid.New(), Quantity: 30},
		},
	}
	require.NoError(t, db.Create(item).Error)

	found, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 30, found.Items[0].TotalQty)
	assert.Equal(t, 30, found.Items[0].Contributions.TotalQuantity())
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupLotTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedLot(t, db, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	cursor := &pagination.Cursor{CreatedAt: first[2].CreatedAt, ID: first[2].ID}
	second, err := repo.List(ctx, cursor, 3)
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, lot := range second {
		assert.True(t, lot.CreatedAt.Before(first[2].CreatedAt))
	}
}

func TestRepositoryCreatePackages(t *testing.T) {
	db := setupLotTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	lot := seedLot(t, db, time.Now().UTC())
	require.NoError(t, repo.CreatePackages(ctx, []models.Package{
		{ID: uuid.New(), LotID: lot.ID, Status: enums.PackageStatusCreated, WeightKg: 40},
		{ID: uuid.New(), LotID: lot.ID, Status: enums.PackageStatusCreated, WeightKg: 25},
	}))

	var count int64
	require.NoError(t, db.Model(&models.Package{}).Where("lot_id = ?", lot.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// Empty input is a no-op.
	require.NoError(t, repo.CreatePackages(ctx, nil))
}
