package controllers

import (
	"net/http"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/internal/packages"
	"github.com/cocomarket/bulkbuy-backend/internal/shipments"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

type dashboardDTO struct {
	PackagesByStatus map[string]int `json:"packages_by_status"`
	ActiveShipments  []ShipmentDTO  `json:"active_shipments"`
}

// DashboardSummary aggregates the operational view: how many packages sit in
// each status plus every shipment still moving.
func DashboardSummary(packageSvc packages.Service, shipmentSvc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if packageSvc == nil || shipmentSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard services unavailable"))
			return
		}

		histogram, err := packageSvc.StatusHistogram(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		byStatus := make(map[string]int, len(histogram))
		for status, count := range histogram {
			byStatus[string(status)] = count
		}

		active, err := shipmentSvc.Active(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboardDTO{
			PackagesByStatus: byStatus,
			ActiveShipments:  toShipmentDTOs(active),
		})
	}
}
