package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"resto-insights/internal/analytics"
	"resto-insights/internal/errors"
	"resto-insights/internal/observability"
)

// StatsProvider reports ingest counters for the admin surface.
type StatsProvider interface {
	Stats() map[string]any
}

type APIHandlers struct {
	service *analytics.Service
	stats   StatsProvider
	logger  *slog.Logger
}

func NewAPIHandlers(service *analytics.Service, stats StatsProvider, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		service: service,
		stats:   stats,
		logger:  logger,
	}
}

// Reports are per-tenant, so responses are cacheable only privately.
var reportHeaders = map[string]string{
	"Cache-Control": "private, max-age=60",
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Dashboard(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleHourly(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Hourly(r.Context(), restaurantID, intParam(r, "period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	from, ok := h.dayParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.dayParam(w, r, "to")
	if !ok {
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1) // inclusive end day
	}

	report, err := h.service.Categories(r.Context(), restaurantID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleABC(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = analytics.MetricRevenue
	}
	if metric != analytics.MetricRevenue && metric != analytics.MetricQuantity {
		h.writeError(w, r, errors.Validation(fmt.Sprintf("metric must be %q or %q", analytics.MetricRevenue, analytics.MetricQuantity)))
		return
	}

	report, err := h.service.ABC(r.Context(), restaurantID, intParam(r, "period"), metric)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.RFM(r.Context(), restaurantID, intParam(r, "period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleRFMSegments(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.RFMSegments(r.Context(), restaurantID, intParam(r, "period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

// HandleRFMDescriptions serves the static segment table; no tenant needed.
func (h *APIHandlers) HandleRFMDescriptions(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": "public, max-age=3600",
	}
	errors.WriteSuccessWithHeaders(w, analytics.SegmentDescriptions(), headers)
}

func (h *APIHandlers) HandleChurn(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Churn(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleChurnAlerts(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.ChurnAlerts(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleChurnTrend(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.ChurnTrend(r.Context(), restaurantID, intParam(r, "months"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Forecast(r.Context(), restaurantID, intParam(r, "days"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleEnhancedForecast(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.EnhancedForecast(r.Context(), restaurantID, intParam(r, "days"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleCategoryForecast(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.CategoryForecast(r.Context(), restaurantID, intParam(r, "days"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleStaffForecast(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	report, err := h.service.StaffForecast(r.Context(), restaurantID, intParam(r, "days"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

// HandleComparison compares two periods. With no bounds given it falls back
// to the trailing week against the week before it.
func (h *APIHandlers) HandleComparison(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	p1From, ok := h.dayParam(w, r, "period1_from")
	if !ok {
		return
	}
	p1To, ok := h.dayParam(w, r, "period1_to")
	if !ok {
		return
	}
	p2From, ok := h.dayParam(w, r, "period2_from")
	if !ok {
		return
	}
	p2To, ok := h.dayParam(w, r, "period2_to")
	if !ok {
		return
	}
	if !p1To.IsZero() {
		p1To = p1To.AddDate(0, 0, 1)
	}
	if !p2To.IsZero() {
		p2To = p2To.AddDate(0, 0, 1)
	}

	report, err := h.service.Comparison(r.Context(), restaurantID, p1From, p1To, p2From, p2To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, reportHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.stats.Stats())
}

func (h *APIHandlers) restaurantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("restaurant_id")
	if id == "" {
		h.writeError(w, r, errors.Validation("restaurant_id is required"))
		return "", false
	}
	return id, true
}

// dayParam parses an optional YYYY-MM-DD query value; absent yields zero.
func (h *APIHandlers) dayParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, true
	}

	day, err := h.service.ParseDay(value)
	if err != nil {
		h.writeError(w, r, errors.ValidationWrap(err, fmt.Sprintf("%s must be a YYYY-MM-DD date", name)))
		return time.Time{}, false
	}
	return day, true
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// intParam returns 0 for absent or malformed values; the service clamps 0 to
// its documented default.
func intParam(r *http.Request, name string) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
