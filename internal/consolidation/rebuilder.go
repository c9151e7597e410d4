package consolidation

import (
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	"github.com/cocomarket/bulkbuy-backend/pkg/types"
)

// Snapshot is the consistent read the rebuilder operates on. Carts must have
// their items preloaded; the rebuilder never touches storage itself.
type Snapshot struct {
	Carts        []models.Cart
	Products     []models.Product
	Providers    []models.Provider
	PreviousLots []models.Lot
}

// SkipCounts surfaces references the rebuilder tolerated instead of failing.
// They exist so the caller can make silent data-integrity gaps observable.
type SkipCounts struct {
	MissingProduct  int
	UnknownProvider int
}

// Result is the full derived state for one rebuild pass. LotItems is the
// flattened view of every lot's Items slice.
type Result struct {
	Lots     []models.Lot
	LotItems []models.LotItem
	Skipped  SkipCounts
}

// IDFunc supplies identifiers for newly created lots and lot items. Tests
// inject deterministic sequences; production passes uuid.New.
type IDFunc func() uuid.UUID

type productAccumulator struct {
	productID     uuid.UUID
	totalQty      int
	contributions types.Contributions
}

type providerAccumulator struct {
	order []uuid.UUID // product ids in first-seen order
	byID  map[uuid.UUID]*productAccumulator
}

// Rebuild recomputes every provider's lot from the current cart state.
//
// Draft carts never contribute. A provider with no previous lot and no
// aggregated quantity produces nothing. A provider that already has a lot
// keeps that lot's id, status, and timestamps; only its items are rebuilt.
// Contributions from multiple carts of one user merge into a single entry.
func Rebuild(snap Snapshot, now time.Time, newID IDFunc) Result {
	if newID == nil {
		newID = uuid.New
	}

	productIndex := make(map[uuid.UUID]models.Product, len(snap.Products))
	for _, product := range snap.Products {
		productIndex[product.ID] = product
	}

	knownProviders := make(map[uuid.UUID]struct{}, len(snap.Providers))
	for _, provider := range snap.Providers {
		knownProviders[provider.ID] = struct{}{}
	}

	previousByProvider := make(map[uuid.UUID]models.Lot, len(snap.PreviousLots))
	for _, lot := range snap.PreviousLots {
		previousByProvider[lot.ProviderID] = lot
	}

	result := Result{}

	// Single pass over all non-draft cart items, bucketed per provider.
	accumulators := make(map[uuid.UUID]*providerAccumulator)
	for _, cart := range snap.Carts {
		if cart.Status == enums.CartStatusDraft {
			continue
		}
		for _, item := range cart.Items {
			product, ok := productIndex[item.ProductID]
			if !ok {
				result.Skipped.MissingProduct++
				continue
			}
			if _, ok := knownProviders[product.ProviderID]; !ok {
				result.Skipped.UnknownProvider++
				continue
			}

			bucket := accumulators[product.ProviderID]
			if bucket == nil {
				bucket = &providerAccumulator{byID: make(map[uuid.UUID]*productAccumulator)}
				accumulators[product.ProviderID] = bucket
			}

			acc := bucket.byID[product.ID]
			if acc == nil {
				acc = &productAccumulator{productID: product.ID}
				bucket.byID[product.ID] = acc
				bucket.order = append(bucket.order, product.ID)
			}
			acc.totalQty += item.Quantity
			acc.addContribution(cart.UserID, item.Quantity)
		}
	}

	for _, provider := range snap.Providers {
		previous, hasPrevious := previousByProvider[provider.ID]
		bucket := accumulators[provider.ID]

		if !hasPrevious && bucket == nil {
			continue
		}

		lot := models.Lot{
			ProviderID:  provider.ID,
			Status:      enums.LotStatusPending,
			ScheduledAt: now,
		}
		if hasPrevious {
			lot.ID = previous.ID
			lot.Status = previous.Status
			lot.ScheduledAt = previous.ScheduledAt
			lot.ConsolidatedAt = previous.ConsolidatedAt
			lot.OrderSentAt = previous.OrderSentAt
			lot.ConfirmedAt = previous.ConfirmedAt
			lot.CreatedAt = previous.CreatedAt
		} else {
			lot.ID = newID()
		}

		if bucket != nil {
			lot.Items = make([]models.LotItem, 0, len(bucket.order))
			for _, productID := range bucket.order {
				acc := bucket.byID[productID]
				lot.Items = append(lot.Items, models.LotItem{
					ID:            newID(),
					LotID:         lot.ID,
					ProductID:     acc.productID,
					TotalQty:      acc.totalQty,
					Contributions: acc.contributions,
				})
			}
		}

		result.Lots = append(result.Lots, lot)
		result.LotItems = append(result.LotItems, lot.Items...)
	}

	return result
}

func (a *productAccumulator) addContribution(userID uuid.UUID, quantity int) {
	for i := range a.contributions {
		if a.contributions[i].UserID == userID {
			a.contributions[i].Quantity += quantity
			return
		}
	}
	a.contributions = append(a.contributions, types.Contribution{UserID: userID, Quantity: quantity})
}
