package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/internal/packages"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

// PackageGet returns one package by id.
func PackageGet(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}

		packageID, err := pathUUID(r, "packageID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pkg, err := svc.Get(ctx, packageID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPackageDTO(*pkg))
	}
}

// PackagesByLot lists every package cut from one lot.
func PackagesByLot(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}

		lotID, err := pathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pkgs, err := svc.ListByLot(ctx, lotID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packages": toPackageDTOs(pkgs)})
	}
}

// PackageMarkReady advances one package from created to ready_for_pickup.
func PackageMarkReady(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}
		packageTransition(w, r, logg, svc.MarkReadyForPickup)
	}
}

// PackageStartTransit advances one package from ready_for_pickup to in_transit.
func PackageStartTransit(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}
		packageTransition(w, r, logg, svc.StartTransit)
	}
}

// PackageMarkDelivered advances one package from in_transit to delivered.
func PackageMarkDelivered(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "package service unavailable"))
			return
		}
		packageTransition(w, r, logg, svc.MarkDelivered)
	}
}

func packageTransition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, advance func(ctx context.Context, actorID, packageID uuid.UUID) (*models.Package, error)) {
	ctx := r.Context()

	actorID, err := actorFromContext(ctx)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	packageID, err := pathUUID(r, "packageID")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	pkg, err := advance(ctx, actorID, packageID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, toPackageDTO(*pkg))
}
