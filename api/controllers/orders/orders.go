package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/api/middleware"
	"github.com/rbhardware/shop-backend/api/responses"
	"github.com/rbhardware/shop-backend/api/validators"
	internalorders "github.com/rbhardware/shop-backend/internal/orders"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/logger"
	"github.com/rbhardware/shop-backend/pkg/types"
)

// CancelRequest is the optional body of POST /order/{orderId}/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// StatusRequest is the body of the admin status endpoints.
type StatusRequest struct {
	Status string `json:"status"`
}

// Create places an order from the checkout payload and empties the cart.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(svc, logg, w, r)
		if !ok {
			return
		}

		var body internalorders.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "Order created successfully", types.Payload{"order": order})
	}
}

// ListForUser returns the caller's orders, newest first.
func ListForUser(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(svc, logg, w, r)
		if !ok {
			return
		}

		orders, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"orders": orders})
	}
}

func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(svc, logg, w, r)
		if !ok {
			return
		}

		order, err := svc.Get(r.Context(), userID, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"order": order})
	}
}

// Cancel accepts an empty body; the reason defaults server side.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(svc, logg, w, r)
		if !ok {
			return
		}

		var body CancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), userID, chi.URLParam(r, "orderId"), body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Order cancelled successfully", types.Payload{"order": order})
	}
}

// ListAll returns every order annotated with its customer. Admin only.
func ListAll(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		orders, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "", types.Payload{"orders": orders})
	}
}

// AdminUpdateStatus sets the status of an order owned by the {userId} path user.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		ownerID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "userId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Invalid user ID"))
			return
		}

		var body StatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, chi.URLParam(r, "orderId"))
		}
		order, err := svc.UpdateStatus(ctx, ownerID, chi.URLParam(r, "orderId"), body.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Order status updated successfully", types.Payload{"order": order})
	}
}

// UpdateStatusByRef resolves the owner from the order id before updating.
func UpdateStatusByRef(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(svc, logg, w, r) {
			return
		}

		var body StatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatusByRef(r.Context(), chi.URLParam(r, "orderId"), body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Order status updated successfully", types.Payload{"order": order})
	}
}

func requireUser(svc internalorders.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !available(svc, logg, w, r) {
		return uuid.Nil, false
	}
	userID, err := middleware.RequireUserID(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return userID, true
}

func available(svc internalorders.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request) bool {
	if svc != nil {
		return true
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
	return false
}
