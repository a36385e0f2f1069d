package server

import (
	"net/http"

	"resto-insights/internal/handlers"
)

type Server struct {
	mux *http.ServeMux
	api *handlers.APIHandlers
}

func NewServer(api *handlers.APIHandlers) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		api: api,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.api.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.api.HandleStats)

	// Analytics reports
	s.mux.HandleFunc("GET /api/analytics/dashboard", s.api.HandleDashboard)
	s.mux.HandleFunc("GET /api/analytics/hourly", s.api.HandleHourly)
	s.mux.HandleFunc("GET /api/analytics/categories", s.api.HandleCategories)
	s.mux.HandleFunc("GET /api/analytics/abc", s.api.HandleABC)
	s.mux.HandleFunc("GET /api/analytics/rfm", s.api.HandleRFM)
	s.mux.HandleFunc("GET /api/analytics/rfm/segments", s.api.HandleRFMSegments)
	s.mux.HandleFunc("GET /api/analytics/rfm/descriptions", s.api.HandleRFMDescriptions)
	s.mux.HandleFunc("GET /api/analytics/churn", s.api.HandleChurn)
	s.mux.HandleFunc("GET /api/analytics/churn/alerts", s.api.HandleChurnAlerts)
	s.mux.HandleFunc("GET /api/analytics/churn/trend", s.api.HandleChurnTrend)
	s.mux.HandleFunc("GET /api/analytics/forecast", s.api.HandleForecast)
	s.mux.HandleFunc("GET /api/analytics/forecast/enhanced", s.api.HandleEnhancedForecast)
	s.mux.HandleFunc("GET /api/analytics/forecast/categories", s.api.HandleCategoryForecast)
	s.mux.HandleFunc("GET /api/analytics/forecast/staff", s.api.HandleStaffForecast)
	s.mux.HandleFunc("GET /api/analytics/comparison", s.api.HandleComparison)

	// CSV exports
	s.mux.HandleFunc("GET /api/analytics/export/sales", s.api.HandleExportSales)
	s.mux.HandleFunc("GET /api/analytics/export/abc", s.api.HandleExportABC)
	s.mux.HandleFunc("GET /api/analytics/export/rfm", s.api.HandleExportRFM)
	s.mux.HandleFunc("GET /api/analytics/export/churn", s.api.HandleExportChurn)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
