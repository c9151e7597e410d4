package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/api/validators"
	"github.com/cocomarket/bulkbuy-backend/internal/shipments"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

type assembleShipmentPayload struct {
	CarrierName string     `json:"carrier_name" validate:"required"`
	ETA         *time.Time `json:"eta"`
	PackageIDs  []string   `json:"package_ids" validate:"required,min=1,dive,uuid"`
}

// ShipmentAssemble groups ready packages under one carrier.
func ShipmentAssemble(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		actorID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload assembleShipmentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		packageIDs := make([]uuid.UUID, 0, len(payload.PackageIDs))
		for _, raw := range payload.PackageIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid package id"))
				return
			}
			packageIDs = append(packageIDs, id)
		}

		shipment, err := svc.Assemble(ctx, actorID, shipments.AssembleInput{
			CarrierName: payload.CarrierName,
			ETA:         payload.ETA,
			PackageIDs:  packageIDs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toShipmentDTO(*shipment))
	}
}

// ShipmentGet returns one shipment with its package links.
func ShipmentGet(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		shipmentID, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		shipment, err := svc.Get(ctx, shipmentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toShipmentDTO(*shipment))
	}
}

// ShipmentList returns every shipment, newest first.
func ShipmentList(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		all, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"shipments": toShipmentDTOs(all)})
	}
}

// ShipmentActive returns shipments still moving, assembling or in transit.
func ShipmentActive(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}

		active, err := svc.Active(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"shipments": toShipmentDTOs(active)})
	}
}

// ShipmentStartTransit advances one shipment from assembling to in_transit.
func ShipmentStartTransit(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		shipmentTransition(w, r, logg, svc.StartTransit)
	}
}

// ShipmentArrive advances one shipment from in_transit to arrived.
func ShipmentArrive(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		shipmentTransition(w, r, logg, svc.Arrive)
	}
}

// ShipmentClose advances one shipment from arrived to closed.
func ShipmentClose(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		shipmentTransition(w, r, logg, svc.Close)
	}
}

func shipmentTransition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, advance func(ctx context.Context, actorID, shipmentID uuid.UUID) (*models.Shipment, error)) {
	ctx := r.Context()

	actorID, err := actorFromContext(ctx)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	shipmentID, err := pathUUID(r, "shipmentID")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	shipment, err := advance(ctx, actorID, shipmentID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, toShipmentDTO(*shipment))
}
