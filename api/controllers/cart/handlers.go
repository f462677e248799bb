package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/api/middleware"
	"github.com/rbhardware/shop-backend/api/responses"
	"github.com/rbhardware/shop-backend/api/validators"
	cartsvc "github.com/rbhardware/shop-backend/internal/cart"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// UpdateRequest is the body of PUT /api/cart/update.
type UpdateRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// CartFetch returns the caller's cart, creating an empty one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(svc, logg, w, r)
		if !ok {
			return
		}

		cart, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"cart": cart})
	}
}

// CartAdd adds a line or bumps the quantity of a matching one.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(svc, logg, w, r)
		if !ok {
			return
		}

		var body cartsvc.AddInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Add(r.Context(), owner, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Item added to cart", types.Payload{"cart": cart})
	}
}

func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(svc, logg, w, r)
		if !ok {
			return
		}

		var body UpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateQuantity(r.Context(), owner, body.ItemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Cart item updated", types.Payload{"cart": cart})
	}
}

// CartRemove drops a line. Unknown item ids succeed with the cart unchanged.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(svc, logg, w, r)
		if !ok {
			return
		}

		cart, err := svc.Remove(r.Context(), owner, chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Item removed from cart", types.Payload{"cart": cart})
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := resolveOwner(svc, logg, w, r)
		if !ok {
			return
		}

		cart, err := svc.Clear(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Cart cleared successfully", types.Payload{"cart": cart})
	}
}

// resolveOwner picks the user cart when authenticated and the guest session
// cart otherwise.
func resolveOwner(svc cartsvc.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (cartsvc.Owner, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return cartsvc.Owner{}, false
	}

	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user id"))
			return cartsvc.Owner{}, false
		}
		return cartsvc.UserOwner(userID), true
	}

	session := middleware.GuestSessionFromContext(r.Context())
	if session == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session required"))
		return cartsvc.Owner{}, false
	}
	return cartsvc.GuestOwner(session), true
}
