package trace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cocomarket/bulkbuy-backend/pkg/enums"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

// ItemStageResult is the derived stage of one cart item plus the graph slice
// it was computed from.
type ItemStageResult struct {
	CartItemID uuid.UUID       `json:"cart_item_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Stage      enums.ItemStage `json:"stage"`
	Trace      ItemTrace       `json:"trace"`
}

// Service resolves the traceability stage of cart items on demand. Stages are
// never persisted; every call walks the current lot/package/shipment graph.
type Service interface {
	StageForItem(ctx context.Context, userID uuid.UUID, cartItemID uuid.UUID) (*ItemStageResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the trace service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("trace: repository is required")
	}
	if logg == nil {
		return nil, errors.New("trace: logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) StageForItem(ctx context.Context, userID uuid.UUID, cartItemID uuid.UUID) (*ItemStageResult, error) {
	item, err := s.repo.FindCartItem(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	cart, err := s.repo.FindCart(ctx, item.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if cart.UserID != userID {
		// Foreign items are indistinguishable from missing ones.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	trace, err := s.assembleTrace(ctx, cart.Status, item.ProductID)
	if err != nil {
		return nil, err
	}

	stage := StageForItem(*trace)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_item_id": item.ID.String(),
		"product_id":   item.ProductID.String(),
		"stage":        stage,
	}), "item stage resolved")

	return &ItemStageResult{
		CartItemID: item.ID,
		ProductID:  item.ProductID,
		Stage:      stage,
		Trace:      *trace,
	}, nil
}

// assembleTrace walks lot, packages and shipments for the product. Items in
// carts that have not been transferred to lots have no lot slice by
// definition, even when other users already pushed the product into one.
func (s *service) assembleTrace(ctx context.Context, cartStatus enums.CartStatus, productID uuid.UUID) (*ItemTrace, error) {
	if cartStatus != enums.CartStatusTransferredToLots {
		return &ItemTrace{}, nil
	}

	lot, err := s.repo.FindLotByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve lot for product")
	}
	if lot == nil {
		return &ItemTrace{}, nil
	}

	packages, err := s.repo.ListPackagesByLot(ctx, lot.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list lot packages")
	}

	lotTrace := LotTrace{Status: lot.Status}
	for _, pkg := range packages {
		pkgTrace := PackageTrace{Status: pkg.Status}
		shipment, err := s.repo.FindShipmentForPackage(ctx, pkg.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve shipment for package")
		}
		if shipment != nil {
			status := shipment.Status
			pkgTrace.Shipment = &status
		}
		lotTrace.Packages = append(lotTrace.Packages, pkgTrace)
	}

	return &ItemTrace{Lot: &lotTrace}, nil
}
