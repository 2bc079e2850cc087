package controllers

import (
	"net/http"

	"github.com/angelmondragon/tableside-backend/api/responses"
	"github.com/angelmondragon/tableside-backend/api/validators"
	cartsvc "github.com/angelmondragon/tableside-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

const maxInstructionsLength = 500

type addCartItemRequest struct {
	SessionID           string  `json:"sessionId" validate:"required"`
	MenuItemID          int64   `json:"menuItemId" validate:"required,gt=0"`
	Quantity            *int    `json:"quantity" validate:"omitempty,min=1,max=99"`
	SpecialInstructions *string `json:"specialInstructions"`
	Addons              []int64 `json:"addons" validate:"omitempty,dive,gt=0"`
	// AddonIDs is the older spelling, still accepted from existing clients.
	AddonIDs []int64 `json:"addonIds" validate:"omitempty,dive,gt=0"`
}

func (r addCartItemRequest) toInput() cartsvc.AddItemInput {
	quantity := 1
	if r.Quantity != nil {
		quantity = *r.Quantity
	}
	return cartsvc.AddItemInput{
		SessionID:           validators.SanitizeString(r.SessionID, 0),
		MenuItemID:          r.MenuItemID,
		Quantity:            quantity,
		SpecialInstructions: validators.SanitizeOptional(r.SpecialInstructions, maxInstructionsLength),
		AddonIDs:            append(append([]int64(nil), r.Addons...), r.AddonIDs...),
	}
}

type updateCartItemRequest struct {
	Quantity            int     `json:"quantity" validate:"required,min=1,max=99"`
	SpecialInstructions *string `json:"specialInstructions"`
}

// CartList returns the session's cart lines with menu items and add-ons.
func CartList(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := validators.PathString(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.GetCartItems(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lines == nil {
			lines = []cartsvc.Line{}
		}
		responses.WriteSuccess(w, lines)
	}
}

// CartAdd adds one line to a session's cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddToCart(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// CartUpdate replaces a cart line's quantity and, when given, its instructions.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateCartItem(r.Context(), id, cartsvc.UpdateItemInput{
			Quantity:            payload.Quantity,
			SpecialInstructions: validators.SanitizeOptional(payload.SpecialInstructions, maxInstructionsLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.RemoveFromCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
			return
		}
		responses.WriteNoContent(w)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID, err := validators.PathString(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.ClearCart(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
