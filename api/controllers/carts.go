package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cocomarket/bulkbuy-backend/api/responses"
	"github.com/cocomarket/bulkbuy-backend/api/validators"
	"github.com/cocomarket/bulkbuy-backend/internal/cart"
	pkgerrors "github.com/cocomarket/bulkbuy-backend/pkg/errors"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
)

type setCartItemPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required"`
}

// CartCreate returns the caller's open draft, creating one when none exists.
func CartCreate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateCart(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCartDTO(*created))
	}
}

// CartActive returns the caller's current draft cart.
func CartActive(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		active, err := svc.GetActiveCart(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartDTO(*active))
	}
}

// CartGet returns one of the caller's carts by id, any status.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		found, err := svc.GetCart(ctx, userID, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartDTO(*found))
	}
}

// CartSetItem sets the quantity for one product line. Zero removes the line.
func CartSetItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload setCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		updated, err := svc.SetItemQuantity(ctx, userID, cart.SetItemInput{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  *payload.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartDTO(*updated))
	}
}

// CartTotals returns the priced aggregate for one cart.
func CartTotals(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		totals, err := svc.Totals(ctx, userID, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartTotalsDTO(*totals))
	}
}

// CartPay marks a draft cart as paid and freezes its lines.
func CartPay(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		paid, err := svc.Pay(ctx, userID, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartDTO(*paid))
	}
}

// CartSplit hands a paid cart to lot consolidation.
func CartSplit(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID, err := pathUUID(r, "cartID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		transferred, err := svc.SplitToLots(ctx, userID, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartDTO(*transferred))
	}
}
