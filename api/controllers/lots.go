package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/api/validators"
	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/internal/lots"
	"github.com/cocomarket/bulkbuy-backend/pkg/db/models"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/pagination"
)

type packageSpecPayload struct {
	WeightKg float64 `json:"weight_kg" validate:"gte=0"`
	VolumeM3 float64 `json:"volume_m3" validate:"gte=0"`
}

type generatePackagesPayload struct {
	Packages []packageSpecPayload `json:"packages" validate:"dive"`
}

type rebuildSummaryDTO struct {
	LotsRebuilt            int `json:"lots_rebuilt"`
	SkippedMissingProduct  int `json:"skipped_missing_product"`
	SkippedUnknownProvider int `json:"skipped_unknown_provider"`
}

// LotList returns one cursor page of lots, newest first.
func LotList(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		page, err := svc.List(ctx, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, LotListDTO{Lots: toLotDTOs(page.Lots), NextCursor: page.NextCursor})
	}
}

// LotGet returns one lot with its derived items.
func LotGet(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}

		lotID, err := pathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lot, err := svc.Get(ctx, lotID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toLotDTO(*lot))
	}
}

// LotProgress reports per-item and overall attainment against provider MOQs.
func LotProgress(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}

		lotID, err := pathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Progress(ctx, lotID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toLotProgressDTO(*result))
	}
}

// LotMarkReady advances one lot from pending to ready once every item clears
// its provider minimum.
func LotMarkReady(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}
		lotTransition(w, r, logg, svc.MarkReady)
	}
}

// LotSendOrder advances one lot from ready to order_sent.
func LotSendOrder(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}
		lotTransition(w, r, logg, svc.SendOrder)
	}
}

// LotConfirm advances one lot from order_sent to confirmed.
func LotConfirm(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}
		lotTransition(w, r, logg, svc.Confirm)
	}
}

// LotGeneratePackages cuts packages from a confirmed lot and marks it
// packaged. An empty body yields a single default package.
func LotGeneratePackages(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lot service unavailable"))
			return
		}

		actorID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lotID, err := pathUUID(r, "lotID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload generatePackagesPayload
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		specs := make([]lots.PackageSpec, 0, len(payload.Packages))
		for _, spec := range payload.Packages {
			specs = append(specs, lots.PackageSpec{WeightKg: spec.WeightKg, VolumeM3: spec.VolumeM3})
		}

		lot, created, err := svc.GeneratePackages(ctx, actorID, lotID, specs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"lot":      toLotDTO(*lot),
			"packages": toPackageDTOs(created),
		})
	}
}

// LotsRebuild forces a full reconsolidation pass over all paid carts.
func LotsRebuild(svc consolidation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consolidation service unavailable"))
			return
		}

		if _, err := actorFromContext(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RebuildLots(ctx, consolidation.TriggerManual)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rebuildSummaryDTO{
			LotsRebuilt:            len(result.Lots),
			SkippedMissingProduct:  result.Skipped.MissingProduct,
			SkippedUnknownProvider: result.Skipped.UnknownProvider,
		})
	}
}

func lotTransition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, advance func(ctx context.Context, actorID, lotID uuid.UUID) (*models.Lot, error)) {
	ctx := r.Context()

	actorID, err := actorFromContext(ctx)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	lotID, err := pathUUID(r, "lotID")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	lot, err := advance(ctx, actorID, lotID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, toLotDTO(*lot))
}
