package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resto-insights/internal/analytics"
	"resto-insights/internal/config"
	"resto-insights/internal/ledger"
	"resto-insights/internal/models"
)

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		Timezone:            "UTC",
		DefaultPeriodDays:   30,
		MaxPeriodDays:       365,
		ABCThresholdA:       80,
		ABCThresholdB:       95,
		RFMHighScore:        4,
		RFMLowScore:         2,
		AtRiskDays:          30,
		ChurnedDays:         90,
		PeakHourTolerance:   0.1,
		ForecastHistoryDays: 90,
		DefaultForecastDays: 7,
		MaxForecastDays:     31,
		MaxTrendMonths:      24,
		OrdersPerWaiter:     25,
		OrdersPerCook:       40,
	}
}

func createTestHandlers() *APIHandlers {
	store := ledger.NewStore()

	now := time.Now().UTC()
	store.SetData(
		[]models.OrderFact{
			{
				ID:            "o1",
				RestaurantID:  "r1",
				CustomerID:    "c1",
				WaiterID:      "w1",
				Timestamp:     now.Add(-2 * time.Hour),
				Total:         1200,
				Status:        models.OrderStatusCompleted,
				PaymentStatus: models.PaymentStatusPaid,
			},
			{
				ID:            "o2",
				RestaurantID:  "r1",
				CustomerID:    "c2",
				WaiterID:      "w1",
				Timestamp:     now.AddDate(0, 0, -3),
				Total:         800,
				Status:        models.OrderStatusCompleted,
				PaymentStatus: models.PaymentStatusPaid,
			},
		},
		[]models.OrderLineFact{
			{OrderID: "o1", DishID: "d1", DishName: "Steak", CategoryID: "cat1", CategoryName: "Mains", Quantity: 2, UnitPrice: 600, LineTotal: 1200},
			{OrderID: "o2", DishID: "d2", DishName: "Tea", CategoryID: "cat2", CategoryName: "Drinks", Quantity: 4, UnitPrice: 200, LineTotal: 800},
		},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := analytics.NewService(store, testConfig(), logger)
	return NewAPIHandlers(service, store, logger)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestNewAPIHandlers(t *testing.T) {
	h := createTestHandlers()
	if h == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if h.service == nil {
		t.Error("service field should be set")
	}
	if h.stats == nil {
		t.Error("stats field should be set")
	}
}

func TestHandleDashboard(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard?restaurant_id=r1", nil)
	w := httptest.NewRecorder()
	h.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.HasPrefix(cc, "private") {
		t.Errorf("Cache-Control = %q, want private", cc)
	}

	body := decodeEnvelope(t, w)
	if body["success"] != true {
		t.Error("success should be true")
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatal("data should be an object")
	}
	for _, key := range []string{"today", "yesterday", "week", "month", "top_dishes", "daily_trend", "today_vs_yesterday"} {
		if _, ok := data[key]; !ok {
			t.Errorf("dashboard data missing %q", key)
		}
	}
}

func TestHandleDashboard_MissingRestaurantID(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/dashboard", nil)
	w := httptest.NewRecorder()
	h.HandleDashboard(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	body := decodeEnvelope(t, w)
	if body["success"] != false {
		t.Error("success should be false")
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatal("error should be an object")
	}
	if errObj["code"] != "VALIDATION_ERROR" {
		t.Errorf("error code = %v, want VALIDATION_ERROR", errObj["code"])
	}
}

func TestHandleABC_InvalidMetric(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/abc?restaurant_id=r1&metric=profit", nil)
	w := httptest.NewRecorder()
	h.HandleABC(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}

func TestHandleABC_ValidMetrics(t *testing.T) {
	h := createTestHandlers()

	for _, metric := range []string{"", "revenue", "quantity"} {
		url := "/api/analytics/abc?restaurant_id=r1"
		if metric != "" {
			url += "&metric=" + metric
		}
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		h.HandleABC(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("metric %q: status = %d, want 200", metric, w.Code)
		}
	}
}

func TestHandleRFMDescriptions_StaticAndPublic(t *testing.T) {
	h := createTestHandlers()

	// No restaurant_id needed; the table is static.
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/rfm/descriptions", nil)
	w := httptest.NewRecorder()
	h.HandleRFMDescriptions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.HasPrefix(cc, "public") {
		t.Errorf("Cache-Control = %q, want public", cc)
	}

	body := decodeEnvelope(t, w)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 9 {
		t.Errorf("expected 9 segment descriptions, got %v", body["data"])
	}
}

func TestHandleComparison_InvalidDate(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/comparison?restaurant_id=r1&period1_from=15.03.2026", nil)
	w := httptest.NewRecorder()
	h.HandleComparison(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleComparison_Defaults(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/comparison?restaurant_id=r1", nil)
	w := httptest.NewRecorder()
	h.HandleComparison(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	for _, key := range []string{"period1", "period2", "changes"} {
		if _, ok := data[key]; !ok {
			t.Errorf("comparison data missing %q", key)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	if _, ok := data["record_count"]; !ok {
		t.Error("stats should report record_count")
	}
}

func TestHandleExportSales(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/export/sales?restaurant_id=r1&period=7", nil)
	w := httptest.NewRecorder()
	h.HandleExportSales(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "date,orders_count,revenue,avg_check") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(w.Body.String(), "\n", 2)[0])
	}
}

func TestHandleExportSales_MissingRestaurantID(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/export/sales", nil)
	w := httptest.NewRecorder()
	h.HandleExportSales(w, req)

	// Errors stay JSON even on the CSV endpoints.
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestHandleExportABC(t *testing.T) {
	h := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/export/abc?restaurant_id=r1", nil)
	w := httptest.NewRecorder()
	h.HandleExportABC(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "dish_id,") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(w.Body.String(), "\n", 2)[0])
	}
}

func TestReportEndpoints_Succeed(t *testing.T) {
	h := createTestHandlers()

	endpoints := map[string]http.HandlerFunc{
		"hourly":              h.HandleHourly,
		"categories":          h.HandleCategories,
		"rfm":                 h.HandleRFM,
		"rfm/segments":        h.HandleRFMSegments,
		"churn":               h.HandleChurn,
		"churn/alerts":        h.HandleChurnAlerts,
		"churn/trend":         h.HandleChurnTrend,
		"forecast":            h.HandleForecast,
		"forecast/enhanced":   h.HandleEnhancedForecast,
		"forecast/categories": h.HandleCategoryForecast,
		"forecast/staff":      h.HandleStaffForecast,
	}

	for name, handler := range endpoints {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analytics/"+name+"?restaurant_id=r1", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
			}
			body := decodeEnvelope(t, w)
			if body["success"] != true {
				t.Error("success should be true")
			}
		})
	}
}
