package booking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/courtside/courtside-api/internal/domain/wallet"
	"github.com/courtside/courtside-api/internal/middleware"
	"github.com/courtside/courtside-api/internal/pkg/response"
	"github.com/courtside/courtside-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type slotRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req slotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	slotID, _ := uuid.Parse(req.SlotID)

	result, err := h.svc.Lock(r.Context(), userID, slotID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotUnavailable):
			response.Conflict(w, "slot is not available")
		case errors.Is(err, ErrAlreadyLocked):
			response.Conflict(w, "slot is locked by another user")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req slotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	slotID, _ := uuid.Parse(req.SlotID)

	b, err := h.svc.Confirm(r.Context(), userID, slotID)
	if err != nil {
		switch {
		case errors.Is(err, ErrLockExpired):
			response.Conflict(w, "slot lock expired, lock the slot again")
		case errors.Is(err, ErrNotLockOwner):
			response.Forbidden(w, "slot is locked by another user")
		case errors.Is(err, ErrSlotUnavailable):
			response.Conflict(w, "slot is no longer available")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			response.Conflict(w, "insufficient wallet balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, b)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	b, err := h.svc.Cancel(r.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "booking not found")
		case errors.Is(err, ErrNotBookingOwner):
			response.Forbidden(w, "not your booking")
		case errors.Is(err, ErrAlreadyCancelled):
			response.Conflict(w, "booking already cancelled")
		case errors.Is(err, ErrNotCancellable):
			response.Conflict(w, "booking can no longer be cancelled")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	bookings, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"bookings": bookings})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	r.Post("/lock", h.Lock)
	r.Post("/confirm", h.Confirm)
	r.Post("/{id}/cancel", h.Cancel)
	return r
}
