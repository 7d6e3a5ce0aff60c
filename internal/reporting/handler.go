// internal/reporting/handler.go
package reporting

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gymdesk/internal/platform/httpx"
	"gymdesk/internal/platform/logger"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("component", "reporting_http")}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Get("/today", h.handleToday)
		r.Get("/payments.csv", h.handlePaymentsCSV)
		r.Get("/visits.csv", h.handleVisitsCSV)
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.log.Error("report failed", "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Today(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handlePaymentsCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PaymentRows(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WritePaymentsCSV(&buf, rows); err != nil {
		h.fail(w, err)
		return
	}
	writeCSVResponse(w, "pagos", buf.Bytes())
}

func (h *Handler) handleVisitsCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.VisitRows(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WriteVisitsCSV(&buf, rows); err != nil {
		h.fail(w, err)
		return
	}
	writeCSVResponse(w, "visitas", buf.Bytes())
}

func writeCSVResponse(w http.ResponseWriter, prefix string, body []byte) {
	filename := fmt.Sprintf("%s-%s.csv", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
