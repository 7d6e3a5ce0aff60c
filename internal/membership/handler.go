// internal/membership/handler.go
package membership

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gymdesk/internal/platform/httpx"
	"gymdesk/internal/platform/logger"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("component", "membership_http")}
}

// Routes mounts the member, visit, payment and maintenance endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/members", func(r chi.Router) {
		r.Get("/", h.handleListMembers)
		r.Post("/", h.handleCreateMember)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetMember)
			r.Put("/", h.handleUpdateMember)
			r.Delete("/", h.handleDeleteMember)
			r.Post("/renew", h.handleRenewMember)
			r.Post("/visit", h.handleRecordVisit)
			r.Post("/payment", h.handleRecordPayment)
		})
	})
	r.Get("/quick-visits", h.handleListQuickVisits)
	r.Post("/quick-visits", h.handleRecordQuickVisit)
	r.Get("/payments", h.handleListPayments)
	r.Post("/maintenance/backfill-visit-names", h.handleBackfillVisitNames)
	r.Post("/maintenance/backfill-payment-names", h.handleBackfillPaymentNames)
}

// writeServiceError maps service errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRateLimited):
		httpx.WriteError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.log.Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.CreateMember(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.UpdateMember(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRenewMember(w http.ResponseWriter, r *http.Request) {
	var req RenewMemberInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.RenewMember(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.RecordVisit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleListQuickVisits(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListQuickVisits(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []QuickVisit{}
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleRecordQuickVisit(w http.ResponseWriter, r *http.Request) {
	var req QuickVisitInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	qv, err := h.service.RecordQuickVisit(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, qv)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if payments == nil {
		payments = []Payment{}
	}
	httpx.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) handleBackfillVisitNames(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.BackfillVisitNames(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) handleBackfillPaymentNames(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.BackfillPaymentNames(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
