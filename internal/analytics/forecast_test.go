package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resto-insights/internal/models"
)

// forecastToday is a Sunday; the 14 days before it cover every weekday twice.
var forecastToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func constantHistory(days int, revenue float64, orders int) []models.DayBucket {
	buckets := make([]models.DayBucket, 0, days)
	for i := days; i >= 1; i-- {
		buckets = append(buckets, models.DayBucket{
			Date:        forecastToday.AddDate(0, 0, -i).Format(dateLayout),
			Revenue:     revenue,
			OrdersCount: orders,
		})
	}
	return buckets
}

func TestForecast_ConstantHistory(t *testing.T) {
	daily := constantHistory(14, 100, 2)

	report := Forecast(daily, 7, forecastToday, time.UTC)

	require.Len(t, report.Forecast, 7)
	assert.Equal(t, "2026-03-15", report.Forecast[0].Date)
	assert.Equal(t, "Sunday", report.Forecast[0].DayName)
	assert.InDelta(t, 0.0, report.TrendSlope, 1e-9)

	for _, p := range report.Forecast {
		assert.InDelta(t, 100.0, p.PredictedRevenue, 1e-6)
		assert.Equal(t, 2, p.PredictedOrders)
	}

	require.Len(t, report.AvgByDay, 7)
	assert.InDelta(t, 100.0, report.AvgByDay["Monday"], 1e-9)
	assert.Equal(t, daily, report.Historical)
}

func TestForecast_EmptyHistory(t *testing.T) {
	report := Forecast(nil, 7, forecastToday, time.UTC)

	assert.Empty(t, report.Forecast)
	assert.Empty(t, report.Historical)
	assert.Empty(t, report.AvgByDay)
}

func TestForecast_NeverNegative(t *testing.T) {
	// Steep downward trend would extrapolate below zero without the clamp.
	daily := []models.DayBucket{
		{Date: "2026-03-11", Revenue: 300, OrdersCount: 3},
		{Date: "2026-03-12", Revenue: 200, OrdersCount: 2},
		{Date: "2026-03-13", Revenue: 100, OrdersCount: 1},
		{Date: "2026-03-14", Revenue: 0, OrdersCount: 0},
	}

	report := Forecast(daily, 14, forecastToday, time.UTC)

	for _, p := range report.Forecast {
		assert.GreaterOrEqual(t, p.PredictedRevenue, 0.0)
		assert.GreaterOrEqual(t, p.PredictedOrders, 0)
	}
}

func TestLinearSlope(t *testing.T) {
	daily := []models.DayBucket{
		{Revenue: 0},
		{Revenue: 10},
		{Revenue: 20},
		{Revenue: 30},
	}
	assert.InDelta(t, 10.0, linearSlope(daily), 1e-9)

	assert.Zero(t, linearSlope(daily[:1]))
	assert.Zero(t, linearSlope(nil))
}

func TestEnhancedForecast_ConstantHistory(t *testing.T) {
	daily := constantHistory(14, 100, 2)

	report := EnhancedForecast(daily, 7, forecastToday, time.UTC)

	require.Len(t, report.Forecast, 7)
	for day, factor := range report.Seasonality {
		assert.InDelta(t, 1.0, factor, 1e-9, "factor for %s", day)
	}

	// Constant revenue: zero variance, so the interval collapses.
	first := report.Forecast[0]
	assert.InDelta(t, 100.0, first.PredictedRevenue, 1e-6)
	assert.InDelta(t, first.PredictedRevenue, first.RevenueMin, 1e-6)
	assert.InDelta(t, first.PredictedRevenue, first.RevenueMax, 1e-6)

	// Two samples per weekday: confidence n/(n+3) = 0.4.
	assert.InDelta(t, 0.4, first.Confidence, 1e-9)
	assert.InDelta(t, 40.0, first.ConfidencePercent, 1e-9)

	assert.Equal(t, "fair", report.DataQuality.Rating)
	assert.Equal(t, 14, report.DataQuality.DaysOfHistory)
	assert.Equal(t, 2, report.DataQuality.MinWeekdaySamples)
}

func TestEnhancedForecast_SeasonalityScalesPrediction(t *testing.T) {
	// Sundays earn double; the factor should lift Sunday predictions.
	daily := constantHistory(14, 100, 2)
	for i := range daily {
		d, err := time.Parse(dateLayout, daily[i].Date)
		require.NoError(t, err)
		if d.Weekday() == time.Sunday {
			daily[i].Revenue = 200
		}
	}

	report := EnhancedForecast(daily, 7, forecastToday, time.UTC)

	assert.Greater(t, report.Seasonality["Sunday"], 1.0)
	assert.Less(t, report.Seasonality["Monday"], 1.0)

	sum := 0.0
	for _, f := range report.Seasonality {
		sum += f
	}
	assert.InDelta(t, 7.0, sum, 1e-9)

	// Forecast day 0 is a Sunday and should beat the Monday prediction.
	sunday, monday := report.Forecast[0], report.Forecast[1]
	assert.Equal(t, "Sunday", sunday.DayName)
	assert.Greater(t, sunday.PredictedRevenue, monday.PredictedRevenue)
}

func TestEnhancedForecast_EmptyHistory(t *testing.T) {
	report := EnhancedForecast(nil, 7, forecastToday, time.UTC)

	assert.Empty(t, report.Forecast)
	assert.Equal(t, "poor", report.DataQuality.Rating)
}

func TestWeekdayConfidence(t *testing.T) {
	assert.Zero(t, weekdayConfidence(0))
	assert.InDelta(t, 0.25, weekdayConfidence(1), 1e-9)
	assert.InDelta(t, 0.5, weekdayConfidence(3), 1e-9)
	assert.InDelta(t, 0.95, weekdayConfidence(100), 1e-9) // capped
}

func TestStaffForecast(t *testing.T) {
	daily := constantHistory(14, 5000, 50)
	ratios := models.StaffingRatios{OrdersPerWaiter: 25, OrdersPerCook: 40}

	report := StaffForecast(daily, 7, forecastToday, time.UTC, ratios)

	require.Len(t, report.Forecast, 7)
	for _, p := range report.Forecast {
		assert.Equal(t, 50, p.PredictedOrders)
		assert.Equal(t, 2, p.WaitersNeeded) // ceil(50/25)
		assert.Equal(t, 2, p.CooksNeeded)   // ceil(50/40)
	}
	assert.Equal(t, ratios, report.Ratios)
}

func TestStaffNeeded_Floor(t *testing.T) {
	assert.Equal(t, 1, staffNeeded(0, 25))
	assert.Equal(t, 1, staffNeeded(10, 25))
	assert.Equal(t, 2, staffNeeded(26, 25))
	assert.Equal(t, 1, staffNeeded(100, 0))
}

func TestCategoryForecasts(t *testing.T) {
	from := forecastToday.AddDate(0, 0, -14)
	to := forecastToday.AddDate(0, 0, -1)

	var orders []models.OrderFact
	var lines []models.OrderLineFact
	for i := 1; i <= 14; i++ {
		day := forecastToday.AddDate(0, 0, -i)
		o := orderAt(day.Format(dateLayout), day.Add(12*time.Hour), 300)
		orders = append(orders, o)
		lines = append(lines,
			models.OrderLineFact{OrderID: o.ID, DishID: "d1", CategoryID: "mains", CategoryName: "Mains", Quantity: 1, LineTotal: 250},
			models.OrderLineFact{OrderID: o.ID, DishID: "d2", CategoryID: "drinks", CategoryName: "Drinks", Quantity: 1, LineTotal: 50},
		)
	}

	report := CategoryForecasts(orders, lines, from, to, 7, forecastToday, time.UTC)

	require.Len(t, report.Categories, 2)
	assert.Equal(t, 7, report.Days)

	// Sorted by predicted revenue descending.
	assert.Equal(t, "mains", report.Categories[0].CategoryID)
	assert.Equal(t, "drinks", report.Categories[1].CategoryID)
	assert.Greater(t, report.Categories[0].PredictedRevenue, report.Categories[1].PredictedRevenue)
	assert.Len(t, report.Categories[0].Forecast, 7)
}
