package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resto-insights/internal/models"
)

func orderAt(id string, ts time.Time, total float64) models.OrderFact {
	return models.OrderFact{
		ID:            id,
		RestaurantID:  "r1",
		CustomerID:    "c-" + id,
		Timestamp:     ts,
		Total:         total,
		Status:        models.OrderStatusCompleted,
		PaymentStatus: models.PaymentStatusPaid,
	}
}

func TestRollup(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	facts := []models.OrderFact{
		orderAt("o1", day, 1000),
		orderAt("o2", day.Add(time.Hour), 1000),
		orderAt("o3", day.Add(2*time.Hour), 1000),
	}

	stats := Rollup(facts)

	assert.Equal(t, 3, stats.OrdersCount)
	assert.InDelta(t, 3000.0, stats.Revenue, 1e-9)
	assert.InDelta(t, 1000.0, stats.AvgCheck, 1e-9)
}

func TestRollup_Empty(t *testing.T) {
	stats := Rollup(nil)

	assert.Equal(t, 0, stats.OrdersCount)
	assert.Zero(t, stats.Revenue)
	assert.Zero(t, stats.AvgCheck)
}

func TestHourlyBuckets_AlwaysTwentyFour(t *testing.T) {
	facts := []models.OrderFact{
		orderAt("o1", time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC), 500),
		orderAt("o2", time.Date(2026, 3, 10, 12, 45, 0, 0, time.UTC), 300),
		orderAt("o3", time.Date(2026, 3, 10, 19, 5, 0, 0, time.UTC), 700),
	}

	buckets := HourlyBuckets(facts, time.UTC)

	require.Len(t, buckets, 24)
	for i, b := range buckets {
		assert.Equal(t, i, b.Hour)
	}
	assert.Equal(t, 2, buckets[12].OrdersCount)
	assert.InDelta(t, 800.0, buckets[12].Revenue, 1e-9)
	assert.Equal(t, 1, buckets[19].OrdersCount)
	assert.Equal(t, 0, buckets[3].OrdersCount)
}

func TestHourlyBuckets_LocalTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 21:00 UTC lands at midnight next day in Moscow.
	facts := []models.OrderFact{
		orderAt("o1", time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC), 100),
	}

	buckets := HourlyBuckets(facts, loc)
	assert.Equal(t, 1, buckets[0].OrdersCount)
	assert.Equal(t, 0, buckets[21].OrdersCount)
}

func TestDailyBuckets_ZeroFilled(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	facts := []models.OrderFact{
		orderAt("o1", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), 200),
		orderAt("o2", time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), 300),
		orderAt("o3", time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC), 999), // outside range
	}

	buckets := DailyBuckets(facts, from, to, time.UTC)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2026-03-01", buckets[0].Date)
	assert.Equal(t, "2026-03-02", buckets[1].Date)
	assert.Equal(t, "2026-03-03", buckets[2].Date)
	assert.Equal(t, 0, buckets[1].OrdersCount)
	assert.InDelta(t, 200.0, buckets[0].Revenue, 1e-9)
	assert.InDelta(t, 300.0, buckets[2].Revenue, 1e-9)
}

func TestDailyBuckets_InvertedRange(t *testing.T) {
	from := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	buckets := DailyBuckets(nil, from, to, time.UTC)
	assert.Empty(t, buckets)
}

func TestPeakHours(t *testing.T) {
	hours := make([]models.HourBucket, 24)
	for i := range hours {
		hours[i].Hour = i
	}
	hours[12].OrdersCount = 100
	hours[13].OrdersCount = 95 // within 10% of the max
	hours[19].OrdersCount = 80
	hours[20].OrdersCount = 90

	peaks := PeakHours(hours, 0.1)
	assert.Equal(t, []int{12, 13, 20}, peaks)
}

func TestPeakHours_NoOrders(t *testing.T) {
	hours := make([]models.HourBucket, 24)
	assert.Empty(t, PeakHours(hours, 0.1))
}

func TestTopDishes(t *testing.T) {
	lines := []models.OrderLineFact{
		{OrderID: "o1", DishID: "d1", DishName: "Borscht", Quantity: 2, LineTotal: 400},
		{OrderID: "o2", DishID: "d1", DishName: "Borscht", Quantity: 1, LineTotal: 200},
		{OrderID: "o1", DishID: "d2", DishName: "Pelmeni", Quantity: 5, LineTotal: 900},
		{OrderID: "o2", DishID: "d3", DishName: "Salad", Quantity: 1, LineTotal: 100},
	}

	top := TopDishes(lines, 2)

	require.Len(t, top, 2)
	assert.Equal(t, "d2", top[0].DishID)
	assert.InDelta(t, 900.0, top[0].Revenue, 1e-9)
	assert.Equal(t, "d1", top[1].DishID)
	assert.Equal(t, 3, top[1].Quantity)
	assert.InDelta(t, 600.0, top[1].Revenue, 1e-9)
}

func TestTopDishes_TieBreakByID(t *testing.T) {
	lines := []models.OrderLineFact{
		{OrderID: "o1", DishID: "d2", DishName: "B", Quantity: 1, LineTotal: 100},
		{OrderID: "o1", DishID: "d1", DishName: "A", Quantity: 1, LineTotal: 100},
	}

	top := TopDishes(lines, 0)

	require.Len(t, top, 2)
	assert.Equal(t, "d1", top[0].DishID)
	assert.Equal(t, "d2", top[1].DishID)
}

func TestWaiterRollup(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	served := func(id, waiterID string, total float64) models.OrderFact {
		o := orderAt(id, day, total)
		o.WaiterID = waiterID
		return o
	}

	facts := []models.OrderFact{
		served("o1", "w1", 1000),
		served("o2", "w1", 500),
		served("o3", "w2", 2000),
		served("o4", "", 9999), // no waiter recorded
	}

	waiters := WaiterRollup(facts)
	require.Len(t, waiters, 2)

	assert.Equal(t, "w2", waiters[0].WaiterID)
	assert.Equal(t, 1, waiters[0].OrdersCount)
	assert.InDelta(t, 2000.0, waiters[0].Revenue, 1e-9)

	assert.Equal(t, "w1", waiters[1].WaiterID)
	assert.Equal(t, 2, waiters[1].OrdersCount)
	assert.InDelta(t, 1500.0, waiters[1].Revenue, 1e-9)
	assert.InDelta(t, 750.0, waiters[1].AvgCheck, 1e-9)
}

func TestWaiterRollup_TieBreaksOnWaiterID(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := orderAt("o1", day, 300)
	a.WaiterID = "wB"
	b := orderAt("o2", day, 300)
	b.WaiterID = "wA"

	waiters := WaiterRollup([]models.OrderFact{a, b})
	require.Len(t, waiters, 2)
	assert.Equal(t, "wA", waiters[0].WaiterID)
	assert.Equal(t, "wB", waiters[1].WaiterID)
}

func TestCategoryBreakdown(t *testing.T) {
	lines := []models.OrderLineFact{
		{OrderID: "o1", DishID: "d1", CategoryID: "c1", CategoryName: "Soups", Quantity: 2, LineTotal: 600},
		{OrderID: "o1", DishID: "d2", CategoryID: "c1", CategoryName: "Soups", Quantity: 1, LineTotal: 150},
		{OrderID: "o2", DishID: "d3", CategoryID: "c2", CategoryName: "Drinks", Quantity: 3, LineTotal: 250},
	}

	report := CategoryBreakdown(lines)

	require.Len(t, report.Categories, 2)
	assert.InDelta(t, 1000.0, report.TotalRevenue, 1e-9)

	soups := report.Categories[0]
	assert.Equal(t, "c1", soups.CategoryID)
	assert.Equal(t, 2, soups.DishesCount)
	assert.InDelta(t, 75.0, soups.Percent, 1e-9)

	sum := 0.0
	for _, c := range report.Categories {
		sum += c.Percent
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestCategoryBreakdown_Empty(t *testing.T) {
	report := CategoryBreakdown(nil)
	assert.Empty(t, report.Categories)
	assert.Zero(t, report.TotalRevenue)
}
