package handlers

import (
	"fmt"
	"net/http"
	"time"

	"resto-insights/internal/analytics"
	"resto-insights/internal/export"
)

// Export handlers compute the report first so failures still come back as
// JSON errors; CSV headers are only written once the data is in hand.

func (h *APIHandlers) HandleExportSales(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	daily, err := h.service.DailySales(r.Context(), restaurantID, intParam(r, "period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeCSVHeaders(w, "sales", restaurantID)
	if err := export.WriteSalesCSV(w, daily); err != nil {
		h.logger.Error("sales csv write failed", "restaurant_id", restaurantID, "error", err)
	}
}

func (h *APIHandlers) HandleExportABC(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.ABC(r.Context(), restaurantID, intParam(r, "period"), analytics.MetricRevenue)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeCSVHeaders(w, "abc", restaurantID)
	if err := export.WriteABCCSV(w, report); err != nil {
		h.logger.Error("abc csv write failed", "restaurant_id", restaurantID, "error", err)
	}
}

func (h *APIHandlers) HandleExportRFM(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.RFM(r.Context(), restaurantID, intParam(r, "period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeCSVHeaders(w, "rfm", restaurantID)
	if err := export.WriteRFMCSV(w, report); err != nil {
		h.logger.Error("rfm csv write failed", "restaurant_id", restaurantID, "error", err)
	}
}

func (h *APIHandlers) HandleExportChurn(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Churn(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeCSVHeaders(w, "churn", restaurantID)
	if err := export.WriteChurnCSV(w, report); err != nil {
		h.logger.Error("churn csv write failed", "restaurant_id", restaurantID, "error", err)
	}
}

func writeCSVHeaders(w http.ResponseWriter, report, restaurantID string) {
	filename := fmt.Sprintf("%s_%s_%s.csv", report, restaurantID, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=UTF-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
}
